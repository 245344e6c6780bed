package domain

import "time"

// Sample is one normalized bandwidth reading tying a subscription to a
// point-in-time rate. Rates are bits per second; every sample produced by
// the same poll cycle carries the same SampleAt timestamp.
type Sample struct {
	SubscriptionID SubscriptionID
	DeviceID       DeviceID
	Queue          string
	RxBps          int64
	TxBps          int64
	SampleAt       time.Time
}

// PollResult is the raw outcome of polling one device: every queue counter
// the device reported in that cycle. Devices that failed or returned nothing
// produce no PollResult at all.
type PollResult struct {
	DeviceID DeviceID
	Counters []QueueCounters
}
