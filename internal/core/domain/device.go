package domain

import (
	"strconv"
	"time"
)

type DeviceID string
type SubscriptionID string

// Vendor identifies the device platform a connection adapter speaks to.
type Vendor string

const (
	VendorRouterOS Vendor = "routeros"
)

// Device is one network access node from the inventory directory.
type Device struct {
	ID       DeviceID
	Title    string
	Vendor   Vendor
	Host     string
	Port     int
	Username string
	Password string
	Active   bool
}

// Address returns the host:port endpoint the device's API listens on.
func (d *Device) Address() string {
	port := d.Port
	if port == 0 {
		port = 8728
	}
	return d.Host + ":" + strconv.Itoa(port)
}

// HasCredentials reports whether the directory supplied login data for the
// device. Devices without credentials are tracked but never dialed.
func (d *Device) HasCredentials() bool {
	return d.Host != "" && d.Username != ""
}

// QueueCounters is one traffic-shaping queue's raw counter set as read from
// the device. Rates are bytes per second as reported by the vendor API.
type QueueCounters struct {
	Queue     string
	RxRate    int64
	TxRate    int64
	RxBytes   int64
	TxBytes   int64
	RxPackets int64
	TxPackets int64
}

// DeviceHealth is a point-in-time view of a connection's retry state,
// exposed for observability only.
type DeviceHealth struct {
	DeviceID            DeviceID
	ConsecutiveFailures int
	LastSuccess         time.Time
	Connected           bool
}
