package ride

import (
	"errors"
	"strings"
)

// ServiceType classifies what kind of work a ride carries. It affects
// completion preconditions (errand rides complete through their task list)
// and completion side effects.
type ServiceType string

const (
	ServiceTaxi      ServiceType = "TAXI"
	ServiceCourier   ServiceType = "COURIER"
	ServiceErrand    ServiceType = "ERRAND"
	ServiceSchoolRun ServiceType = "SCHOOL_RUN"
	ServiceBulk      ServiceType = "BULK"
)

// Timing classifies when a ride runs.
type Timing string

const (
	TimingInstant   Timing = "INSTANT"
	TimingScheduled Timing = "SCHEDULED"
	TimingRecurring Timing = "RECURRING"
)

var (
	ErrInvalidServiceType = errors.New("invalid service type")
	ErrInvalidTiming      = errors.New("invalid timing")
)

// ParseServiceType normalizes (uppercases+trims) and validates a service type string.
func ParseServiceType(in string) (ServiceType, error) {
	st := ServiceType(strings.ToUpper(strings.TrimSpace(in)))
	if st.Valid() {
		return st, nil
	}
	return "", ErrInvalidServiceType
}

// ParseTiming normalizes and validates a timing string.
func ParseTiming(in string) (Timing, error) {
	t := Timing(strings.ToUpper(strings.TrimSpace(in)))
	if t.Valid() {
		return t, nil
	}
	return "", ErrInvalidTiming
}

// Valid reports whether st is one of the allowed service type constants.
func (st ServiceType) Valid() bool {
	switch st {
	case ServiceTaxi, ServiceCourier, ServiceErrand, ServiceSchoolRun, ServiceBulk:
		return true
	default:
		return false
	}
}

// String returns the string representation of the ServiceType.
func (st ServiceType) String() string {
	return string(st)
}

// Valid reports whether t is one of the allowed timing constants.
func (t Timing) Valid() bool {
	switch t {
	case TimingInstant, TimingScheduled, TimingRecurring:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Timing.
func (t Timing) String() string {
	return string(t)
}
