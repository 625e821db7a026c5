package telecom

import (
	"strings"

	"TCAGo/radio"
	"TCAGo/telecom/state"
)

// Wire bitmask values for CapabilitySet. Only the external boundary
// (webserver, call-control consumers) sees the bitmask form.
const (
	BitSupportHold uint32 = 1 << iota
	BitHold
	BitSpeedUpAnswer
	BitShowCallbackNumber
	BitHighDefAudio
	BitWifi
	BitCanPauseVideo
	BitDisconnectFromConference
	BitSeparateFromConference
	BitVoicePrivacy
	BitAddParticipant
	BitDowngradeToVoiceLocal
	BitDowngradeToVoiceRemote
	BitVideoLocalBidirectional
	BitVideoRemoteBidirectional
)

// CapabilitySet is the session capability model: a fixed set of named
// boolean facts. It is composed, never hand-mutated.
type CapabilitySet struct {
	SupportHold              bool
	Hold                     bool
	SpeedUpAnswer            bool
	ShowCallbackNumber       bool
	HighDefAudio             bool
	Wifi                     bool
	CanPauseVideo            bool
	DisconnectFromConference bool
	SeparateFromConference   bool
	VoicePrivacy             bool
	AddParticipant           bool
	DowngradeToVoiceLocal    bool
	DowngradeToVoiceRemote   bool
	VideoLocalBidirectional  bool
	VideoRemoteBidirectional bool
}

// Bitmask serializes the capability set into its wire form.
func (cs CapabilitySet) Bitmask() uint32 {
	var mask uint32
	set := func(bit uint32, on bool) {
		if on {
			mask |= bit
		}
	}
	set(BitSupportHold, cs.SupportHold)
	set(BitHold, cs.Hold)
	set(BitSpeedUpAnswer, cs.SpeedUpAnswer)
	set(BitShowCallbackNumber, cs.ShowCallbackNumber)
	set(BitHighDefAudio, cs.HighDefAudio)
	set(BitWifi, cs.Wifi)
	set(BitCanPauseVideo, cs.CanPauseVideo)
	set(BitDisconnectFromConference, cs.DisconnectFromConference)
	set(BitSeparateFromConference, cs.SeparateFromConference)
	set(BitVoicePrivacy, cs.VoicePrivacy)
	set(BitAddParticipant, cs.AddParticipant)
	set(BitDowngradeToVoiceLocal, cs.DowngradeToVoiceLocal)
	set(BitDowngradeToVoiceRemote, cs.DowngradeToVoiceRemote)
	set(BitVideoLocalBidirectional, cs.VideoLocalBidirectional)
	set(BitVideoRemoteBidirectional, cs.VideoRemoteBidirectional)
	return mask
}

func (cs CapabilitySet) String() string {
	var sb strings.Builder
	add := func(name string, on bool) {
		if !on {
			return
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(name)
	}
	add("SupportHold", cs.SupportHold)
	add("Hold", cs.Hold)
	add("SpeedUpAnswer", cs.SpeedUpAnswer)
	add("ShowCallbackNumber", cs.ShowCallbackNumber)
	add("HighDefAudio", cs.HighDefAudio)
	add("Wifi", cs.Wifi)
	add("CanPauseVideo", cs.CanPauseVideo)
	add("DisconnectFromConference", cs.DisconnectFromConference)
	add("SeparateFromConference", cs.SeparateFromConference)
	add("VoicePrivacy", cs.VoicePrivacy)
	add("AddParticipant", cs.AddParticipant)
	add("DowngradeToVoiceLocal", cs.DowngradeToVoiceLocal)
	add("DowngradeToVoiceRemote", cs.DowngradeToVoiceRemote)
	add("VideoLocalBidirectional", cs.VideoLocalBidirectional)
	add("VideoRemoteBidirectional", cs.VideoRemoteBidirectional)
	if sb.Len() == 0 {
		return "None"
	}
	return sb.String()
}

// ComposeInput is the full input set of the capability composer.
type ComposeInput struct {
	Raw                 radio.CapabilityBits
	Incoming            bool
	Premium             bool // the connection is of the IP-multimedia family right now
	WasEverPremium      bool // ...or was at any point before a handover
	EmergencyCallback   bool // device is in emergency-callback radio mode
	EmergencyNumber     bool
	State               state.SessionState
	Wifi                bool
	HighDefAudio        bool
	VideoPauseSupported bool
	VoicePrivacy        bool
}

// Compose builds the capability set from its inputs. It is a pure
// function: identical inputs yield an identical set.
func Compose(in ComposeInput) CapabilitySet {
	var cs CapabilitySet

	cs.DowngradeToVoiceLocal = in.Raw.Has(radio.RawDowngradeToVoiceLocal)
	cs.DowngradeToVoiceRemote = in.Raw.Has(radio.RawDowngradeToVoiceRemote)
	cs.VideoLocalBidirectional = in.Raw.Has(radio.RawVideoLocalBidirectional)
	cs.VideoRemoteBidirectional = in.Raw.Has(radio.RawVideoRemoteBidirectional)

	if in.Incoming {
		cs.SpeedUpAnswer = true
	}

	if in.Premium {
		cs.SupportHold = true
		cs.Hold = in.State.IsLive()
	}

	if in.EmergencyCallback {
		cs.ShowCallbackNumber = true
	}

	cs.HighDefAudio = in.HighDefAudio
	cs.Wifi = in.Wifi
	cs.CanPauseVideo = in.VideoPauseSupported && cs.VideoLocalBidirectional && cs.VideoRemoteBidirectional

	// Legacy-family calls, unlike premium ones, support per-leg
	// detachment from a conference.
	if !in.WasEverPremium {
		cs.DisconnectFromConference = true
		cs.SeparateFromConference = true
	}

	cs.VoicePrivacy = in.VoicePrivacy

	cs.AddParticipant = in.Premium && !in.EmergencyNumber

	return cs
}
