// Package cause maps raw disconnect codes of the underlying stack,
// vendor cause strings and pending supplementary-service notifications
// into one resolved disconnect cause.
package cause

import "fmt"

type Code int

const (
	NotDisconnected Code = iota
	Local
	Remote
	Busy
	Congestion
	IncomingRejected
	IncomingMissed
	PowerOff
	OutOfService
	InvalidNumber
	TimedOut
	LostSignal
	LimitExceeded
	CallBarred
	FDNBlocked
	Unspecified
)

func (c Code) String() string {
	switch c {
	case NotDisconnected:
		return "NotDisconnected"
	case Local:
		return "Local"
	case Remote:
		return "Remote"
	case Busy:
		return "Busy"
	case Congestion:
		return "Congestion"
	case IncomingRejected:
		return "IncomingRejected"
	case IncomingMissed:
		return "IncomingMissed"
	case PowerOff:
		return "PowerOff"
	case OutOfService:
		return "OutOfService"
	case InvalidNumber:
		return "InvalidNumber"
	case TimedOut:
		return "TimedOut"
	case LostSignal:
		return "LostSignal"
	case LimitExceeded:
		return "LimitExceeded"
	case CallBarred:
		return "CallBarred"
	case FDNBlocked:
		return "FDNBlocked"
	default:
		return "Unspecified"
	}
}

const noNotification = 0xFF

// Cause is the resolved disconnect cause handed to the external layer.
type Cause struct {
	Code             Code
	Vendor           string
	NotificationType int
	NotificationCode int
}

// Resolve builds a Cause from the underlying and vendor cause codes.
func Resolve(code Code, vendor string) Cause {
	return Cause{
		Code:             code,
		Vendor:           vendor,
		NotificationType: noNotification,
		NotificationCode: noNotification,
	}
}

// ResolveNotified builds a Cause that additionally carries the type and
// code of a supplementary-service notification pending at disconnect.
func ResolveNotified(code Code, vendor string, ntype, ncode int) Cause {
	return Cause{
		Code:             code,
		Vendor:           vendor,
		NotificationType: ntype,
		NotificationCode: ncode,
	}
}

func (c Cause) HasNotification() bool {
	return c.NotificationType != noNotification
}

func (c Cause) String() string {
	if c.HasNotification() {
		return fmt.Sprintf("%s (vendor: %q, notification: %d/%d)", c.Code, c.Vendor, c.NotificationType, c.NotificationCode)
	}
	if c.Vendor != "" {
		return fmt.Sprintf("%s (vendor: %q)", c.Code, c.Vendor)
	}
	return c.Code.String()
}
