package radio

type EventKind int

const (
	EvStateChanged EventKind = iota
	EvHandoverStateChanged
	EvRingbackChanged
	EvDisconnect
	EvMultipartyChanged
	EvMergeFailed
	EvSuppServiceNotification
	EvVideoStateChanged
	EvCapabilitiesChanged
	EvVideoProviderChanged
	EvAudioQualityChanged
	EvParticipantsChanged
	EvExtrasChanged
	EvVoicePrivacyOn
	EvVoicePrivacyOff
	EvPostDialWait
	EvPostDialChar
)

func (k EventKind) String() string {
	switch k {
	case EvStateChanged:
		return "StateChanged"
	case EvHandoverStateChanged:
		return "HandoverStateChanged"
	case EvRingbackChanged:
		return "RingbackChanged"
	case EvDisconnect:
		return "Disconnect"
	case EvMultipartyChanged:
		return "MultipartyChanged"
	case EvMergeFailed:
		return "MergeFailed"
	case EvSuppServiceNotification:
		return "SuppServiceNotification"
	case EvVideoStateChanged:
		return "VideoStateChanged"
	case EvCapabilitiesChanged:
		return "CapabilitiesChanged"
	case EvVideoProviderChanged:
		return "VideoProviderChanged"
	case EvAudioQualityChanged:
		return "AudioQualityChanged"
	case EvParticipantsChanged:
		return "ParticipantsChanged"
	case EvExtrasChanged:
		return "ExtrasChanged"
	case EvVoicePrivacyOn:
		return "VoicePrivacyOn"
	case EvVoicePrivacyOff:
		return "VoicePrivacyOff"
	case EvPostDialWait:
		return "PostDialWait"
	default:
		return "PostDialChar"
	}
}

// Event is the tagged-variant notification a Connection delivers to its
// subscribed Sinks. Only the fields relevant to Kind are populated.
type Event struct {
	Kind         EventKind
	Ringback     bool
	Multiparty   bool
	VideoState   int
	Capabilities CapabilityBits
	Provider     VideoProvider
	Quality      AudioQuality
	Participants []Participant
	Extras       map[string]string
	Notification *SuppServiceNotification
	Handover     Connection
	Char         byte
}

// Sink receives a Connection's notification stream. Deliver is called
// from arbitrary stack threads and must not block; WifiChanged is the
// one synchronous callback of the stack and is invoked in-line.
type Sink interface {
	Deliver(Event)
	WifiChanged(isWifi bool)
}
