package radiosim_test

import (
	"testing"

	"TCAGo/radio"
	"TCAGo/radiosim"
	"TCAGo/telecom/cause"

	"github.com/stretchr/testify/require"
)

func TestSlotMechanics(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechPremium)
	require.True(t, phone.RingingCall().IsIdle())
	require.True(t, phone.ForegroundCall().IsIdle())

	first := phone.ReceiveCall("+100")
	require.Equal(t, radio.StateIncoming, phone.RingingCall().State())
	require.Equal(t, radio.Connection(first), phone.RingingCall().EarliestConnection())

	require.NoError(t, phone.AcceptCall(0))
	require.Equal(t, radio.StateActive, phone.ForegroundCall().State())
	require.True(t, phone.RingingCall().IsIdle())

	// A second incoming call rings as call waiting.
	second := phone.ReceiveCall("+200")
	require.Equal(t, radio.StateWaiting, second.State())

	// Accepting it parks the first call.
	require.NoError(t, phone.AcceptCall(0))
	require.Equal(t, radio.StateHolding, first.State())
	require.Equal(t, radio.StateActive, second.State())
	require.Equal(t, radio.Connection(second), phone.ForegroundCall().EarliestConnection())

	require.NoError(t, phone.SwitchHoldingAndActive())
	require.Equal(t, radio.StateActive, first.State())
	require.Equal(t, radio.StateHolding, second.State())

	require.NoError(t, phone.Conference())
	require.True(t, first.IsMultiparty())
	require.True(t, phone.BackgroundCall().IsIdle())
	require.Equal(t, radio.StateActive, second.State())
}

func TestRejectCausesOnRingingCall(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechLegacy)
	conn := phone.ReceiveCall("+100")
	require.NoError(t, phone.RingingCall().Hangup())
	require.Equal(t, radio.StateDisconnected, conn.State())
	require.Equal(t, cause.IncomingRejected, conn.DisconnectCause())

	answered := phone.ReceiveCall("+200")
	require.NoError(t, phone.AcceptCall(0))
	require.NoError(t, answered.Hangup())
	require.Equal(t, cause.Local, answered.DisconnectCause())
}

func TestEmergencyNumbers(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechPremium)
	require.True(t, phone.IsEmergencyNumber("911"))
	require.False(t, phone.IsEmergencyNumber("555"))
	phone.AddEmergencyNumber("999")
	require.True(t, phone.IsEmergencyNumber("999"))

	require.False(t, phone.InEmergencyCallbackMode())
	phone.SetEmergencyCallbackMode(true)
	require.True(t, phone.InEmergencyCallbackMode())
}
