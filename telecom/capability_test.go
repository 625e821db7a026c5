package telecom_test

import (
	"testing"

	"TCAGo/radio"
	"TCAGo/telecom"
	"TCAGo/telecom/state"

	"github.com/stretchr/testify/require"
)

func TestComposeHoldRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		in          telecom.ComposeInput
		supportHold bool
		hold        bool
	}{
		{"premium active", telecom.ComposeInput{Premium: true, WasEverPremium: true, State: state.Active}, true, true},
		{"premium holding", telecom.ComposeInput{Premium: true, WasEverPremium: true, State: state.Holding}, true, true},
		{"premium ringing", telecom.ComposeInput{Premium: true, WasEverPremium: true, State: state.Ringing}, true, false},
		{"premium dialing", telecom.ComposeInput{Premium: true, WasEverPremium: true, State: state.Dialing}, true, false},
		{"legacy active", telecom.ComposeInput{State: state.Active}, false, false},
	}

	for _, test := range tests {
		cs := telecom.Compose(test.in)
		require.Equal(t, test.supportHold, cs.SupportHold, test.name)
		require.Equal(t, test.hold, cs.Hold, test.name)
	}
}

func TestComposeConferenceRules(t *testing.T) {
	t.Parallel()

	// A leg that was never premium keeps the per-leg conference
	// detachment capabilities.
	cs := telecom.Compose(telecom.ComposeInput{State: state.Active})
	require.True(t, cs.DisconnectFromConference)
	require.True(t, cs.SeparateFromConference)

	// Once premium, even after a handover back to legacy, it does not.
	cs = telecom.Compose(telecom.ComposeInput{WasEverPremium: true, State: state.Active})
	require.False(t, cs.DisconnectFromConference)
	require.False(t, cs.SeparateFromConference)

	// Participants can only be added on premium non-emergency calls.
	cs = telecom.Compose(telecom.ComposeInput{Premium: true, WasEverPremium: true, State: state.Active})
	require.True(t, cs.AddParticipant)
	cs = telecom.Compose(telecom.ComposeInput{Premium: true, WasEverPremium: true, EmergencyNumber: true, State: state.Active})
	require.False(t, cs.AddParticipant)
	cs = telecom.Compose(telecom.ComposeInput{State: state.Active})
	require.False(t, cs.AddParticipant)
}

func TestComposeVideoAndAudioRules(t *testing.T) {
	t.Parallel()

	bothVideo := radio.RawVideoLocalBidirectional | radio.RawVideoRemoteBidirectional

	tests := []struct {
		name          string
		in            telecom.ComposeInput
		canPauseVideo bool
	}{
		{"pause supported with both directions", telecom.ComposeInput{Raw: bothVideo, VideoPauseSupported: true}, true},
		{"pause supported local only", telecom.ComposeInput{Raw: radio.RawVideoLocalBidirectional, VideoPauseSupported: true}, false},
		{"pause unsupported", telecom.ComposeInput{Raw: bothVideo}, false},
	}

	for _, test := range tests {
		cs := telecom.Compose(test.in)
		require.Equal(t, test.canPauseVideo, cs.CanPauseVideo, test.name)
	}

	cs := telecom.Compose(telecom.ComposeInput{HighDefAudio: true, Wifi: true, VoicePrivacy: true, Incoming: true, EmergencyCallback: true})
	require.True(t, cs.HighDefAudio)
	require.True(t, cs.Wifi)
	require.True(t, cs.VoicePrivacy)
	require.True(t, cs.SpeedUpAnswer)
	require.True(t, cs.ShowCallbackNumber)
}

func TestComposeRawPassthrough(t *testing.T) {
	t.Parallel()

	raw := radio.RawDowngradeToVoiceLocal | radio.RawVideoRemoteBidirectional
	cs := telecom.Compose(telecom.ComposeInput{Raw: raw, WasEverPremium: true})
	require.True(t, cs.DowngradeToVoiceLocal)
	require.False(t, cs.DowngradeToVoiceRemote)
	require.False(t, cs.VideoLocalBidirectional)
	require.True(t, cs.VideoRemoteBidirectional)
}

func TestComposeIsPure(t *testing.T) {
	t.Parallel()

	in := telecom.ComposeInput{
		Raw:            radio.RawVideoLocalBidirectional,
		Incoming:       true,
		Premium:        true,
		WasEverPremium: true,
		State:          state.Active,
		Wifi:           true,
		HighDefAudio:   true,
	}
	require.Equal(t, telecom.Compose(in), telecom.Compose(in))
}

func TestCapabilityBitmask(t *testing.T) {
	t.Parallel()

	var cs telecom.CapabilitySet
	require.Zero(t, cs.Bitmask())
	require.Equal(t, "None", cs.String())

	cs.SupportHold = true
	cs.Hold = true
	cs.Wifi = true
	mask := cs.Bitmask()
	require.Equal(t, telecom.BitSupportHold|telecom.BitHold|telecom.BitWifi, mask)

	cs.VideoRemoteBidirectional = true
	require.Equal(t, mask|telecom.BitVideoRemoteBidirectional, cs.Bitmask())
}
