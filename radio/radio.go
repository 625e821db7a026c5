// Package radio defines the boundary to the underlying call signaling
// layer. The adapter core consumes these interfaces only; the concrete
// stack (vendor driver or the radiosim package) lives behind them.
package radio

import (
	"TCAGo/telecom/cause"
)

type CallState int

const (
	StateIdle CallState = iota
	StateActive
	StateHolding
	StateDialing
	StateAlerting
	StateIncoming
	StateWaiting
	StateDisconnected
	StateDisconnecting
)

func (cs CallState) String() string {
	switch cs {
	case StateIdle:
		return "Idle"
	case StateActive:
		return "Active"
	case StateHolding:
		return "Holding"
	case StateDialing:
		return "Dialing"
	case StateAlerting:
		return "Alerting"
	case StateIncoming:
		return "Incoming"
	case StateWaiting:
		return "Waiting"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Disconnecting"
	}
}

func (cs CallState) IsRinging() bool {
	return cs == StateIncoming || cs == StateWaiting
}

func (cs CallState) IsAlive() bool {
	return cs != StateIdle && cs != StateDisconnected && cs != StateDisconnecting
}

// =========================================================================================================

type Technology int

const (
	TechLegacy  Technology = iota // circuit-switched family
	TechPremium                   // IP-multimedia family
)

func (t Technology) String() string {
	if t == TechPremium {
		return "Premium"
	}
	return "Legacy"
}

type Presentation int

const (
	PresentationAllowed Presentation = iota
	PresentationRestricted
	PresentationUnknown
	PresentationPayphone
)

type AudioQuality int

const (
	AudioQualityStandard AudioQuality = iota
	AudioQualityHighDefinition
)

// Raw capability bits as reported by the underlying connection.
type CapabilityBits uint32

const (
	RawDowngradeToVoiceLocal CapabilityBits = 1 << iota
	RawDowngradeToVoiceRemote
	RawVideoLocalBidirectional
	RawVideoRemoteBidirectional
)

func (cb CapabilityBits) Has(bit CapabilityBits) bool {
	return cb&bit != 0
}

// =========================================================================================================

const (
	NotificationTypeMO = 0
	NotificationTypeMT = 1
)

// SuppServiceNotification is a supplementary-service notification as
// delivered by the network (call forwarding, call waiting, CUG, ...).
type SuppServiceNotification struct {
	Type    int
	Code    int
	History []string
}

type Participant struct {
	Address     string
	DisplayName string
	State       CallState
}

// VideoProvider is the opaque video-session provider handle exposed by
// the underlying connection; the adapter only caches and relays it.
type VideoProvider interface {
	ID() string
}

// =========================================================================================================

// Connection is one raw call leg in the underlying stack. A Session
// exclusively owns its Connection once attached.
type Connection interface {
	State() CallState
	StateBeforeHandover() CallState
	Technology() Technology
	IsIncoming() bool
	IsMultiparty() bool
	IsWifi() bool

	Address() string
	NumberPresentation() Presentation
	DisplayName() string
	DisplayNamePresentation() Presentation
	OriginalDialString() string

	Capabilities() CapabilityBits
	VideoState() int
	VideoProvider() VideoProvider
	AudioQuality() AudioQuality
	Extras() map[string]string

	DisconnectCause() cause.Code
	VendorDisconnectCause() string

	ConferenceParticipants() []Participant
	RemainingPostDialString() string

	Call() Call

	Hangup() error
	Separate() error
	ProceedAfterWaitChar() error
	CancelPostDial() error
	DisconnectParticipant(endpoint string) error

	Subscribe(Sink)
	Unsubscribe(Sink)
}

// Call is a top-level call object grouping connections (foreground,
// background or ringing slot).
type Call interface {
	State() CallState
	IsIdle() bool
	EarliestConnection() Connection
	Phone() Phone
	Hangup() error
}

// Phone is the per-device call-control primitive set.
type Phone interface {
	RingingCall() Call
	ForegroundCall() Call
	BackgroundCall() Call
	Technology() Technology
	InEmergencyCallbackMode() bool
	IsEmergencyNumber(number string) bool

	AcceptCall(videoState int) error
	SwitchHoldingAndActive() error
	Conference() error
	AddParticipant(participant string) error
}
