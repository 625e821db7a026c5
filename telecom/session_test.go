package telecom_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"TCAGo/radio"
	"TCAGo/radiosim"
	"TCAGo/telecom"
	"TCAGo/telecom/cause"
	"TCAGo/telecom/state"

	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond

	// settling time for asserting that something did NOT happen
	settle = 100 * time.Millisecond
)

// recorder captures every notification for later assertions.
type recorder struct {
	telecom.NopNotifier
	mu            sync.Mutex
	states        []state.SessionState
	causes        []cause.Cause
	extras        []map[string]string
	addresses     []string
	hints         []string
	ringbacks     []bool
	postDialWaits []string
	confStarted   int
	mergeFailed   int
	capsChanges   int
}

func (r *recorder) CapabilitiesChanged(string, telecom.CapabilitySet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capsChanges++
}

func (r *recorder) capabilityChanges() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capsChanges
}

func (r *recorder) StateChanged(_ string, _, newState state.SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, newState)
}

func (r *recorder) Disconnected(_ string, c cause.Cause) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.causes = append(r.causes, c)
}

func (r *recorder) ExtrasChanged(_ string, extras map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extras = append(r.extras, extras)
}

func (r *recorder) AddressChanged(_ string, address string, _ radio.Presentation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addresses = append(r.addresses, address)
}

func (r *recorder) StatusHintChanged(_ string, hint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hints = append(r.hints, hint)
}

func (r *recorder) RingbackChanged(_ string, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ringbacks = append(r.ringbacks, on)
}

func (r *recorder) PostDialWait(_ string, remaining string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postDialWaits = append(r.postDialWaits, remaining)
}

func (r *recorder) ConferenceStarted(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confStarted++
}

func (r *recorder) ConferenceMergeFailed(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mergeFailed++
}

func (r *recorder) statesSeen() []state.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]state.SessionState, len(r.states))
	copy(out, r.states)
	return out
}

func (r *recorder) extrasSeen() []map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]map[string]string, len(r.extras))
	copy(out, r.extras)
	return out
}

func (r *recorder) lastCause() (cause.Cause, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.causes) == 0 {
		return cause.Cause{}, false
	}
	return r.causes[len(r.causes)-1], true
}

func (r *recorder) conferencesStarted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.confStarted
}

func (r *recorder) mergesFailed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mergeFailed
}

func (r *recorder) ringbacksSeen() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, len(r.ringbacks))
	copy(out, r.ringbacks)
	return out
}

// =========================================================================================================

func TestIncomingCallLifecycle(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechPremium)
	conn := phone.ReceiveCall("+14085550123")

	reg := telecom.NewRegistry()
	rec := &recorder{}
	s := telecom.NewSession(reg, rec, conn, 0)

	require.Equal(t, state.Ringing, s.State())
	require.Equal(t, 1, reg.Count())

	s.Answer(0)
	require.Eventually(t, func() bool { return s.State() == state.Active }, waitFor, tick)

	addr, _ := s.Address()
	require.Equal(t, "+14085550123", addr)

	conn.Disconnect(cause.Remote, "remote released")
	require.Eventually(t, func() bool { return s.IsDisposed() }, waitFor, tick)

	require.Equal(t, []state.SessionState{state.Ringing, state.Active, state.Disconnected}, rec.statesSeen())
	c, ok := rec.lastCause()
	require.True(t, ok)
	require.Equal(t, cause.Remote, c.Code)
	require.Equal(t, "remote released", c.Vendor)
	require.False(t, c.HasNotification())
	require.Zero(t, reg.Count())
}

func TestSingleActiveAcrossSessions(t *testing.T) {
	t.Parallel()

	reg := telecom.NewRegistry()
	recA, recB := &recorder{}, &recorder{}

	phoneA := radiosim.NewPhone(radio.TechPremium)
	connA := phoneA.PlaceCall("+100")
	sessA := telecom.NewOutgoingSession(reg, recA, 0)
	sessA.SetRadioConnection(connA)
	connA.SetState(radio.StateActive)
	require.Eventually(t, func() bool { return sessA.State() == state.Active }, waitFor, tick)

	// The stack parks leg A without a report, then activates leg B. B's
	// activation must force A to re-derive its state before B goes
	// active, so never both read Active.
	connA.SetStateQuiet(radio.StateHolding)

	phoneB := radiosim.NewPhone(radio.TechPremium)
	connB := phoneB.PlaceCall("+200")
	sessB := telecom.NewOutgoingSession(reg, recB, 0)
	sessB.SetRadioConnection(connB)
	connB.SetState(radio.StateActive)

	require.Eventually(t, func() bool {
		return sessB.State() == state.Active && sessA.State() == state.Holding
	}, waitFor, tick)
	require.Equal(t, []state.SessionState{state.Dialing, state.Active, state.Holding}, recA.statesSeen())
}

func TestHoldSkippedWhileCallWaiting(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechPremium)
	connA := phone.PlaceCall("+100")
	reg := telecom.NewRegistry()
	sessA := telecom.NewOutgoingSession(reg, &recorder{}, 0)
	sessA.SetRadioConnection(connA)
	connA.SetState(radio.StateActive)
	require.Eventually(t, func() bool { return sessA.State() == state.Active }, waitFor, tick)

	// A second incoming call rings as call waiting: holding now would
	// answer it, so the request is dropped.
	phone.ReceiveCall("+200")
	require.Equal(t, radio.StateWaiting, phone.RingingCall().State())

	sessA.Hold()
	time.Sleep(settle)
	require.Equal(t, state.Active, sessA.State())

	// Once the waiting call goes away the hold proceeds.
	require.NoError(t, phone.RingingCall().Hangup())
	require.Eventually(t, func() bool { return phone.RingingCall().IsIdle() }, waitFor, tick)

	sessA.Hold()
	require.Eventually(t, func() bool { return sessA.State() == state.Holding }, waitFor, tick)
}

func TestUnholdDeferredToSwitch(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechPremium)
	reg := telecom.NewRegistry()
	recA, recB := &recorder{}, &recorder{}

	connA := phone.PlaceCall("+100")
	sessA := telecom.NewOutgoingSession(reg, recA, 0)
	sessA.SetRadioConnection(connA)
	connA.SetState(radio.StateActive)
	require.Eventually(t, func() bool { return sessA.State() == state.Active }, waitFor, tick)

	connB := phone.ReceiveCall("+200")
	sessB := telecom.NewSession(reg, recB, connB, 0)
	sessB.Answer(0)
	require.Eventually(t, func() bool {
		return sessA.State() == state.Holding && sessB.State() == state.Active
	}, waitFor, tick)

	// With two top-level calls up, unhold is ambiguous and is skipped.
	sessA.Unhold()
	time.Sleep(settle)
	require.Equal(t, state.Holding, sessA.State())
	require.Equal(t, state.Active, sessB.State())

	// B hangs up; now A's unhold goes through.
	connB.Disconnect(cause.Remote, "")
	require.Eventually(t, func() bool { return sessB.IsDisposed() }, waitFor, tick)

	sessA.Unhold()
	require.Eventually(t, func() bool { return sessA.State() == state.Active }, waitFor, tick)
}

func TestHoldStateGuards(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechPremium)
	conn := phone.ReceiveCall("+100")
	reg := telecom.NewRegistry()
	s := telecom.NewSession(reg, &recorder{}, conn, 0)

	// Not active: hold is refused. Not holding: unhold is refused.
	s.Hold()
	s.Unhold()
	time.Sleep(settle)
	require.Equal(t, state.Ringing, s.State())
	require.Equal(t, radio.StateIncoming, s.RawState())
}

func TestMultipartyNotifiedOncePerTransition(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechPremium)
	conn := phone.PlaceCall("+100")
	reg := telecom.NewRegistry()
	rec := &recorder{}
	s := telecom.NewOutgoingSession(reg, rec, 0)
	s.SetRadioConnection(conn)
	connState := func() { conn.SetState(radio.StateActive) }
	connState()
	require.Eventually(t, func() bool { return s.State() == state.Active }, waitFor, tick)

	conn.SetMultiparty(true)
	require.Eventually(t, func() bool { return s.IsMultiparty() }, waitFor, tick)

	// Repeated true reports and state refreshes must not re-notify.
	conn.SetMultiparty(true)
	connState()
	time.Sleep(settle)
	require.Equal(t, 1, rec.conferencesStarted())

	// A full false-to-true cycle notifies again.
	conn.SetMultiparty(false)
	conn.SetMultiparty(true)
	require.Eventually(t, func() bool { return rec.conferencesStarted() == 2 }, waitFor, tick)
}

func TestMergeFailedAlwaysForwarded(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechPremium)
	conn := phone.PlaceCall("+100")
	reg := telecom.NewRegistry()
	rec := &recorder{}
	s := telecom.NewOutgoingSession(reg, rec, 0)
	s.SetRadioConnection(conn)

	require.False(t, s.IsMultiparty())
	conn.FailMerge()
	conn.FailMerge()
	require.Eventually(t, func() bool { return rec.mergesFailed() == 2 }, waitFor, tick)
}

func TestExtrasPropagatedOncePerChange(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechPremium)
	conn := phone.PlaceCall("+100")
	reg := telecom.NewRegistry()
	rec := &recorder{}
	s := telecom.NewOutgoingSession(reg, rec, 0)
	s.SetRadioConnection(conn)

	conn.SetExtras(map[string]string{"codec": "EVS"})
	require.Eventually(t, func() bool { return len(rec.extrasSeen()) == 1 }, waitFor, tick)
	require.Equal(t, "EVS", s.Extras()["codec"])

	// A bundle equal by value is not re-propagated.
	conn.SetExtras(map[string]string{"codec": "EVS"})
	time.Sleep(settle)
	require.Len(t, rec.extrasSeen(), 1)

	conn.SetExtras(map[string]string{"codec": "AMR-WB"})
	require.Eventually(t, func() bool { return len(rec.extrasSeen()) == 2 }, waitFor, tick)
	require.Equal(t, "AMR-WB", s.Extras()["codec"])
}

func TestExtrasDeliveredInOrder(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechPremium)
	conn := phone.PlaceCall("+100")
	reg := telecom.NewRegistry()
	rec := &recorder{}
	s := telecom.NewOutgoingSession(reg, rec, 0)
	s.SetRadioConnection(conn)

	for i := 1; i <= 5; i++ {
		conn.SetExtras(map[string]string{"seq": fmt.Sprintf("%d", i)})
	}
	require.Eventually(t, func() bool { return len(rec.extrasSeen()) == 5 }, waitFor, tick)
	for i, extras := range rec.extrasSeen() {
		require.Equal(t, fmt.Sprintf("%d", i+1), extras["seq"])
	}
}

func TestLegacyAddressKeepsDialedDigits(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechLegacy)
	conn := phone.PlaceCall("12345")
	reg := telecom.NewRegistry()
	s := telecom.NewOutgoingSession(reg, &recorder{}, 0)
	s.SetRadioConnection(conn)
	conn.SetState(radio.StateActive)
	require.Eventually(t, func() bool {
		addr, _ := s.Address()
		return addr == "12345"
	}, waitFor, tick)

	// The network rewrites the address mid-call; the session keeps
	// showing what the user dialed.
	conn.SetAddress("98765", radio.PresentationAllowed)
	time.Sleep(settle)
	addr, _ := s.Address()
	require.Equal(t, "12345", addr)
}

func TestPremiumAddressFollowsNetwork(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechPremium)
	conn := phone.PlaceCall("12345")
	reg := telecom.NewRegistry()
	s := telecom.NewOutgoingSession(reg, &recorder{}, 0)
	s.SetRadioConnection(conn)
	conn.SetState(radio.StateActive)

	conn.SetAddress("98765", radio.PresentationAllowed)
	require.Eventually(t, func() bool {
		addr, _ := s.Address()
		return addr == "98765"
	}, waitFor, tick)
}

func TestSuppServiceRefinesDisconnectCause(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechLegacy)
	conn := phone.PlaceCall("+100")
	reg := telecom.NewRegistry()
	rec := &recorder{}
	s := telecom.NewOutgoingSession(reg, rec, 0)
	s.SetRadioConnection(conn)
	conn.SetState(radio.StateActive)

	conn.NotifySuppService(&radio.SuppServiceNotification{
		Type:    radio.NotificationTypeMT,
		Code:    3,
		History: []string{"+15551230001", "+15551230002"},
	})
	require.Eventually(t, func() bool {
		return s.Extras()["callHistoryInfo"] == "+15551230001;+15551230002"
	}, waitFor, tick)

	conn.Disconnect(cause.Busy, "Q850;cause=17")
	require.Eventually(t, func() bool { return s.IsDisposed() }, waitFor, tick)

	c := s.Cause()
	require.Equal(t, cause.Busy, c.Code)
	require.Equal(t, "Q850;cause=17", c.Vendor)
	require.True(t, c.HasNotification())
	require.Equal(t, radio.NotificationTypeMT, c.NotificationType)
	require.Equal(t, 3, c.NotificationCode)
}

func TestRingbackOnlyForForegroundCall(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechPremium)
	reg := telecom.NewRegistry()
	recA, recB := &recorder{}, &recorder{}

	connA := phone.PlaceCall("+100")
	sessA := telecom.NewOutgoingSession(reg, recA, 0)
	sessA.SetRadioConnection(connA)

	connA.NotifyRingback(true)
	require.Eventually(t, func() bool { return sessA.IsRingbackRequested() }, waitFor, tick)
	require.Equal(t, []bool{true}, recA.ringbacksSeen())

	// A leg outside the foreground call cannot drive the ringback tone.
	connB := phone.ReceiveCall("+200")
	sessB := telecom.NewSession(reg, recB, connB, 0)
	connB.NotifyRingback(true)
	time.Sleep(settle)
	require.False(t, sessB.IsRingbackRequested())
	require.Empty(t, recB.ringbacksSeen())
}

func TestWifiUpdatesCapabilitiesAndHints(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechPremium)
	conn := phone.PlaceCall("+100")
	reg := telecom.NewRegistry()
	rec := &recorder{}
	s := telecom.NewOutgoingSession(reg, rec, 0)
	s.SetRadioConnection(conn)
	conn.SetState(radio.StateActive)
	require.Eventually(t, func() bool { return s.State() == state.Active }, waitFor, tick)

	// Wi-Fi changes arrive synchronously, outside the mailbox.
	conn.SetWifi(true)
	require.True(t, s.Capabilities().Wifi)
	require.Equal(t, "Wi-Fi call", s.StatusHint())

	// An unchanged recomposition is not re-notified.
	before := rec.capabilityChanges()
	conn.SetWifi(true)
	require.Equal(t, before, rec.capabilityChanges())

	conn.SetWifi(false)
	require.False(t, s.Capabilities().Wifi)
	require.Empty(t, s.StatusHint())
	require.Equal(t, before+1, rec.capabilityChanges())
}

func TestHandoverSwapsConnection(t *testing.T) {
	t.Parallel()

	premium := radiosim.NewPhone(radio.TechPremium)
	conn := premium.PlaceCall("+15550100")
	reg := telecom.NewRegistry()
	s := telecom.NewOutgoingSession(reg, &recorder{}, 0)
	s.SetRadioConnection(conn)
	conn.SetState(radio.StateActive)
	require.Eventually(t, func() bool { return s.State() == state.Active }, waitFor, tick)
	require.True(t, s.Capabilities().SupportHold)
	require.False(t, s.Capabilities().DisconnectFromConference)

	legacy := radiosim.NewPhone(radio.TechLegacy)
	repl := legacy.PlaceCall("+15550100")
	repl.SetStateQuiet(radio.StateActive)

	conn.StartHandover(repl)
	require.Eventually(t, func() bool {
		cs := s.Capabilities()
		return cs.DisconnectFromConference && !cs.SupportHold
	}, waitFor, tick)
	require.Equal(t, state.Active, s.State())
}

func TestPostDialSequence(t *testing.T) {
	t.Parallel()

	phone := radiosim.NewPhone(radio.TechLegacy)
	conn := phone.PlaceCall("5551234;890")
	reg := telecom.NewRegistry()
	rec := &recorder{}
	s := telecom.NewOutgoingSession(reg, rec, 0)
	s.SetRadioConnection(conn)

	conn.PostDialWait("890")
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.postDialWaits) == 1 && rec.postDialWaits[0] == "890"
	}, waitFor, tick)

	s.PostDialContinue(true)
	require.Empty(t, conn.RemainingPostDialString())
}

// =========================================================================================================

type countingObserver struct {
	mu    sync.Mutex
	count int
}

func (o *countingObserver) SessionConfigured(*telecom.Session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.count++
}

func (o *countingObserver) configured() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.count
}

func TestObserverConfiguredSemantics(t *testing.T) {
	t.Parallel()

	reg := telecom.NewRegistry()
	s := telecom.NewOutgoingSession(reg, &recorder{}, 0)

	early := &countingObserver{}
	s.Attach(early)
	require.Zero(t, early.configured(), "no connection attached yet")

	phone := radiosim.NewPhone(radio.TechPremium)
	conn := phone.PlaceCall("+100")
	s.SetRadioConnection(conn)
	require.Equal(t, 1, early.configured())

	// A late observer on an already-configured session catches up
	// synchronously on attach.
	late := &countingObserver{}
	s.Attach(late)
	require.Equal(t, 1, late.configured())

	s.Detach(late)
	repl := phone.PlaceCall("+100")
	repl.SetStateQuiet(radio.StateDialing)
	s.SetRadioConnection(repl)
	require.Equal(t, 2, early.configured())
	require.Equal(t, 1, late.configured())
}

func TestRegistryTracksSessions(t *testing.T) {
	t.Parallel()

	reg := telecom.NewRegistry()
	require.True(t, reg.IsEmpty())

	a := telecom.NewOutgoingSession(reg, &recorder{}, 0)
	b := telecom.NewOutgoingSession(reg, &recorder{}, 0)
	require.Equal(t, 2, reg.Count())

	got, ok := reg.Load(a.ID())
	require.True(t, ok)
	require.Same(t, a, got)

	others := reg.Others(a)
	require.Len(t, others, 1)
	require.Same(t, b, others[0])

	require.Len(t, reg.Summaries(), 2)

	reg.Delete(a.ID())
	reg.Delete(a.ID())
	require.Equal(t, 1, reg.Count())
}

func TestConcurrentActivationsDoNotWedge(t *testing.T) {
	t.Parallel()

	const legs = 8
	const rounds = 100

	reg := telecom.NewRegistry()
	sessions := make([]*telecom.Session, legs)
	conns := make([]*radiosim.Connection, legs)
	for i := range sessions {
		phone := radiosim.NewPhone(radio.TechPremium)
		conns[i] = phone.PlaceCall(fmt.Sprintf("+1%03d", i))
		sessions[i] = telecom.NewOutgoingSession(reg, &recorder{}, 0)
		sessions[i].SetRadioConnection(conns[i])
	}

	// Every leg flaps between active and holding at full speed. Each
	// activation walks the sibling set, so activations overlap across
	// all eight sessions the whole time.
	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c *radiosim.Connection) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				c.SetState(radio.StateActive)
				c.SetState(radio.StateHolding)
			}
		}(c)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent activations wedged")
	}

	// Every leg's last report was holding; all mailboxes must drain.
	require.Eventually(t, func() bool {
		for _, s := range sessions {
			if s.State() != state.Holding {
				return false
			}
		}
		return true
	}, waitFor, tick)
}

// loopbackCall and loopbackPhone stand in for a stack whose switch
// primitive reads the session back synchronously before returning.
type loopbackCall struct {
	st    radio.CallState
	conn  radio.Connection
	phone radio.Phone
}

func (c *loopbackCall) State() radio.CallState               { return c.st }
func (c *loopbackCall) IsIdle() bool                         { return !c.st.IsAlive() }
func (c *loopbackCall) EarliestConnection() radio.Connection { return c.conn }
func (c *loopbackCall) Phone() radio.Phone                   { return c.phone }
func (c *loopbackCall) Hangup() error                        { return nil }

type loopbackPhone struct {
	foreground radio.Call
	onSwitch   func() error
}

func (p *loopbackPhone) RingingCall() radio.Call       { return nil }
func (p *loopbackPhone) ForegroundCall() radio.Call    { return p.foreground }
func (p *loopbackPhone) BackgroundCall() radio.Call    { return nil }
func (p *loopbackPhone) Technology() radio.Technology  { return radio.TechPremium }
func (p *loopbackPhone) InEmergencyCallbackMode() bool { return false }
func (p *loopbackPhone) IsEmergencyNumber(string) bool { return false }
func (p *loopbackPhone) AcceptCall(int) error          { return nil }
func (p *loopbackPhone) Conference() error             { return nil }
func (p *loopbackPhone) AddParticipant(string) error   { return nil }

func (p *loopbackPhone) SwitchHoldingAndActive() error {
	if p.onSwitch != nil {
		return p.onSwitch()
	}
	return nil
}

type loopbackConn struct {
	*radiosim.Connection
	call radio.Call
}

func (c *loopbackConn) Call() radio.Call { return c.call }

func TestHoldReadsBackDuringSwitch(t *testing.T) {
	t.Parallel()

	reg := telecom.NewRegistry()
	phone := radiosim.NewPhone(radio.TechPremium)
	inner := phone.PlaceCall("+100")
	call := &loopbackCall{st: radio.StateActive}
	conn := &loopbackConn{Connection: inner, call: call}
	call.conn = conn
	lp := &loopbackPhone{foreground: call}
	call.phone = lp

	sess := telecom.NewOutgoingSession(reg, &recorder{}, 0)
	sess.SetRadioConnection(conn)
	inner.SetState(radio.StateActive)
	require.Eventually(t, func() bool { return sess.State() == state.Active }, waitFor, tick)

	switched := false
	lp.onSwitch = func() error {
		// A synchronous read-back from inside the primitive must not
		// block against the operation that invoked it.
		_ = sess.State()
		_ = sess.Capabilities()
		switched = true
		return nil
	}

	done := make(chan struct{})
	go func() {
		sess.Hold()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("hold blocked while the stack read the session back")
	}
	require.True(t, switched)
}
