package domain

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrDeviceNotFound       = errors.New("device not found")
	ErrPublisherClosed      = errors.New("publisher closed")
)
