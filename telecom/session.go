package telecom

import (
	"fmt"
	"sync"
	"time"

	"TCAGo/calllog"
	. "TCAGo/global"
	"TCAGo/guid"
	"TCAGo/radio"
	"TCAGo/telecom/cause"
	"TCAGo/telecom/state"
)

// Domain is the injected view of all sessions in this call-control
// domain. The Registry is the production implementation.
type Domain interface {
	Siblings
	Store(*Session)
	Delete(id string)
}

// Observer is notified once whenever the underlying radio connection is
// attached or re-attached. Callbacks run synchronously and must not
// block; they may read the Session.
type Observer interface {
	SessionConfigured(s *Session)
}

// Notifier is the external call-control surface. Callbacks run on the
// session's event goroutine while the session is locked: they must not
// block and must not call back into the Session.
type Notifier interface {
	StateChanged(id string, oldState, newState state.SessionState)
	Disconnected(id string, c cause.Cause)
	CapabilitiesChanged(id string, caps CapabilitySet)
	AddressChanged(id string, address string, pres radio.Presentation)
	DisplayNameChanged(id string, name string, pres radio.Presentation)
	ExtrasChanged(id string, extras map[string]string)
	StatusHintChanged(id string, hint string)
	RingbackChanged(id string, on bool)
	VideoStateChanged(id string, videoState int)
	VideoProviderChanged(id string, provider radio.VideoProvider)
	ConferenceStarted(id string)
	ConferenceMergeFailed(id string)
	ParticipantsChanged(id string, participants []radio.Participant)
	PostDialWait(id string, remaining string)
	PostDialChar(id string, char byte)
}

// NopNotifier implements Notifier with no-ops; embed it to override a
// subset of callbacks.
type NopNotifier struct{}

func (NopNotifier) StateChanged(string, state.SessionState, state.SessionState) {}
func (NopNotifier) Disconnected(string, cause.Cause)                            {}
func (NopNotifier) CapabilitiesChanged(string, CapabilitySet)                   {}
func (NopNotifier) AddressChanged(string, string, radio.Presentation)           {}
func (NopNotifier) DisplayNameChanged(string, string, radio.Presentation)       {}
func (NopNotifier) ExtrasChanged(string, map[string]string)                     {}
func (NopNotifier) StatusHintChanged(string, string)                            {}
func (NopNotifier) RingbackChanged(string, bool)                                {}
func (NopNotifier) VideoStateChanged(string, int)                               {}
func (NopNotifier) VideoProviderChanged(string, radio.VideoProvider)            {}
func (NopNotifier) ConferenceStarted(string)                                    {}
func (NopNotifier) ConferenceMergeFailed(string)                                {}
func (NopNotifier) ParticipantsChanged(string, []radio.Participant)             {}
func (NopNotifier) PostDialWait(string, string)                                 {}
func (NopNotifier) PostDialChar(string, byte)                                   {}

// =========================================================================================================

// Session is one call leg, translated from the raw signaling layer into
// the abstract session model of the external call-control layer. All
// mutation happens one event at a time behind mu; the mailbox is the
// entry point for the radio layer's producer threads.
type Session struct {
	id        string
	direction Direction
	domain    Domain
	notifier  Notifier
	mbx       *mailbox
	createdAt time.Time

	mu                      sync.Mutex
	conn                    radio.Connection
	rawState                radio.CallState
	abstract                state.SessionState
	activationPending       bool
	caps                    CapabilitySet
	capsValid               bool
	rawCaps                 radio.CapabilityBits
	isWifi                  bool
	hasHDAudio              bool
	videoPauseSupported     bool
	isMultiparty            bool
	wasEverPremium          bool
	isEmergency             bool
	voicePrivacy            bool
	ringback                bool
	videoState              int
	provider                radio.VideoProvider
	extras                  map[string]string
	address                 string
	addressPresentation     radio.Presentation
	displayName             string
	displayNamePresentation radio.Presentation
	statusHint              string
	pendingNotification     *radio.SuppServiceNotification
	finalCause              cause.Cause
	observers               map[Observer]struct{}
	disposed                bool
}

// NewSession creates a session attached to an existing raw connection
// (the incoming-call path). mailboxDepth <= 0 picks the default.
func NewSession(domain Domain, notifier Notifier, conn radio.Connection, mailboxDepth int) *Session {
	s := newSession(domain, notifier, INBOUND, mailboxDepth)
	if conn != nil {
		s.SetRadioConnection(conn)
	}
	return s
}

// NewOutgoingSession creates a detached session for an outgoing call
// attempt; the raw connection is attached later via SetRadioConnection.
func NewOutgoingSession(domain Domain, notifier Notifier, mailboxDepth int) *Session {
	return newSession(domain, notifier, OUTBOUND, mailboxDepth)
}

func newSession(domain Domain, notifier Notifier, dir Direction, mailboxDepth int) *Session {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	s := &Session{
		id:        guid.NewSessionID(),
		direction: dir,
		domain:    domain,
		notifier:  notifier,
		mbx:       newMailbox(mailboxDepth),
		createdAt: time.Now().UTC(),
		rawState:  radio.StateIdle,
		abstract:  state.New,
		extras:    make(map[string]string),
		observers: make(map[Observer]struct{}),
	}
	s.mbx.run(s)
	domain.Store(s)
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Direction() Direction {
	return s.direction
}

func (s *Session) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("ID: %s, State: %s, RawState: %s, Direction: %s, Capabilities: %s",
		s.id, s.abstract.String(), s.rawState.String(), s.direction.String(), s.caps.String())
}

// =========================================================================================================
// Read surface for the external call-control layer.

func (s *Session) State() state.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.abstract
}

func (s *Session) RawState() radio.CallState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rawState
}

func (s *Session) Capabilities() CapabilitySet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caps
}

// CapabilityBits is the wire form of the session capabilities.
func (s *Session) CapabilityBits() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caps.Bitmask()
}

func (s *Session) Address() (string, radio.Presentation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address, s.addressPresentation
}

func (s *Session) DisplayName() (string, radio.Presentation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayName, s.displayNamePresentation
}

func (s *Session) Extras() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CloneStringMap(s.extras)
}

func (s *Session) StatusHint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusHint
}

func (s *Session) Cause() cause.Cause {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalCause
}

func (s *Session) VideoState() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoState
}

func (s *Session) VideoProvider() radio.VideoProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

func (s *Session) IsMultiparty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isMultiparty
}

func (s *Session) IsRingbackRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ringback
}

func (s *Session) IsWifi() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isWifi
}

func (s *Session) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

func (s *Session) ConferenceParticipants() []radio.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.ConferenceParticipants()
}

// =========================================================================================================
// Listener registry.

// Attach adds an observer. If an underlying connection is already
// attached, the configured callback fires synchronously right away so
// that late-registering observers of already-answered calls catch up.
func (s *Session) Attach(o Observer) {
	s.mu.Lock()
	s.observers[o] = struct{}{}
	configured := s.conn != nil
	s.mu.Unlock()
	if configured {
		o.SessionConfigured(s)
	}
}

func (s *Session) Detach(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.observers, o)
}

// SetRadioConnection attaches (or re-attaches) the raw connection:
// any prior connection is fully unsubscribed first, the new one is
// subscribed and its current state primed, then every observer gets the
// configured callback.
func (s *Session) SetRadioConnection(conn radio.Connection) {
	if conn == nil {
		return
	}
	s.mu.Lock()
	s.setRadioConnectionLocked(conn)
	obs := s.observerListLocked()
	s.mu.Unlock()
	for _, o := range obs {
		o.SessionConfigured(s)
	}
	s.completeActivation()
}

func (s *Session) setRadioConnectionLocked(conn radio.Connection) {
	s.clearRadioConnectionLocked()

	s.conn = conn
	s.rawState = radio.StateIdle
	conn.Subscribe(s)

	if number := conn.Address(); number != "" {
		if ph := s.phoneLocked(); ph != nil {
			s.isEmergency = ph.IsEmergencyNumber(number)
		}
	}

	s.setVideoStateLocked(conn.VideoState())
	s.rawCaps = conn.Capabilities()
	s.isWifi = conn.IsWifi()
	s.setVideoProviderLocked(conn.VideoProvider())
	s.hasHDAudio = conn.AudioQuality() == radio.AudioQualityHighDefinition
	if conn.Technology() == radio.TechPremium {
		s.wasEverPremium = true
	}
	s.reconcileExtrasLocked(conn.Extras())

	s.updateStateLocked(false)
}

func (s *Session) clearRadioConnectionLocked() {
	if s.conn == nil {
		return
	}
	s.conn.Unsubscribe(s)
	s.conn = nil
}

func (s *Session) observerListLocked() []Observer {
	obs := make([]Observer, 0, len(s.observers))
	for o := range s.observers {
		obs = append(obs, o)
	}
	return obs
}

// =========================================================================================================
// Sink implementation: entry points for the radio layer.

func (s *Session) Deliver(ev radio.Event) {
	s.mbx.Post(ev)
}

// WifiChanged is the one synchronous callback of the radio layer.
func (s *Session) WifiChanged(isWifi bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.isWifi = isWifi
	s.updateCapabilitiesLocked()
	s.updateStatusHintsLocked()
}

func (s *Session) dispatch(ev radio.Event) {
	s.mu.Lock()
	configured := s.dispatchLocked(ev)
	var obs []Observer
	if configured {
		obs = s.observerListLocked()
	}
	s.mu.Unlock()
	for _, o := range obs {
		o.SessionConfigured(s)
	}
	s.completeActivation()
}

// dispatchLocked routes one mailbox event to its handler. Each event
// kind has exactly one handler. Returns whether the configured
// callback must fire (connection replaced by handover).
func (s *Session) dispatchLocked(ev radio.Event) bool {
	if s.disposed {
		return false
	}
	switch ev.Kind {
	case radio.EvStateChanged, radio.EvDisconnect:
		s.updateStateLocked(false)
	case radio.EvHandoverStateChanged:
		return s.handleHandoverLocked(ev.Handover)
	case radio.EvRingbackChanged:
		s.handleRingbackLocked(ev.Ringback)
	case radio.EvMultipartyChanged:
		s.handleMultipartyLocked(ev.Multiparty)
	case radio.EvMergeFailed:
		s.notifyConferenceMergeFailedLocked()
	case radio.EvSuppServiceNotification:
		s.handleSuppServiceLocked(ev.Notification)
	case radio.EvVideoStateChanged:
		s.setVideoStateLocked(ev.VideoState)
	case radio.EvCapabilitiesChanged:
		s.rawCaps = ev.Capabilities
		s.updateCapabilitiesLocked()
	case radio.EvVideoProviderChanged:
		s.setVideoProviderLocked(ev.Provider)
	case radio.EvAudioQualityChanged:
		s.hasHDAudio = ev.Quality == radio.AudioQualityHighDefinition
		s.updateCapabilitiesLocked()
	case radio.EvParticipantsChanged:
		s.notifier.ParticipantsChanged(s.id, ev.Participants)
	case radio.EvExtrasChanged:
		s.reconcileExtrasLocked(ev.Extras)
	case radio.EvVoicePrivacyOn:
		if !s.voicePrivacy {
			s.voicePrivacy = true
			s.updateStateLocked(false)
		}
	case radio.EvVoicePrivacyOff:
		if s.voicePrivacy {
			s.voicePrivacy = false
			s.updateStateLocked(false)
		}
	case radio.EvPostDialWait:
		if s.conn != nil {
			s.notifier.PostDialWait(s.id, s.conn.RemainingPostDialString())
		}
	case radio.EvPostDialChar:
		s.notifier.PostDialChar(s.id, ev.Char)
	}
	return false
}

// =========================================================================================================
// External call-control operations. All fire-and-forget: effects are
// observed through the event path, failures are logged no-ops.
//
// Each operation snapshots what it needs under mu, releases it, then
// invokes the radio primitive. The primitives emit events back into
// this session's mailbox; invoking them while holding mu would let a
// full mailbox block against its own stalled consumer.

func (s *Session) Answer(videoState int) {
	s.mu.Lock()
	ringing := s.isValidRingingCallLocked()
	ph := s.phoneLocked()
	s.mu.Unlock()
	if !ringing || ph == nil {
		return
	}
	if err := ph.AcceptCall(videoState); err != nil {
		LogError(LTSession, "Failed to accept call: "+err.Error())
	}
}

func (s *Session) Reject() {
	s.mu.Lock()
	ringing := s.isValidRingingCallLocked()
	conn := s.conn
	s.mu.Unlock()
	if !ringing || conn == nil {
		return
	}
	s.hangup(conn, true)
}

func (s *Session) Disconnect() {
	s.mu.Lock()
	ringing := s.isValidRingingCallLocked()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	s.hangup(conn, ringing)
}

func (s *Session) hangup(conn radio.Connection, ringing bool) {
	if ringing {
		// Hanging up a ringing call goes through the top-level call so
		// the originator still reaches voicemail on reject.
		if c := conn.Call(); c != nil {
			if err := c.Hangup(); err != nil {
				LogError(LTSession, "Call hangup failed: "+err.Error())
			}
		} else {
			LogWarning(LTSession, "Attempting to hangup a connection without backing call")
		}
		return
	}
	// Per-leg hangup keeps a conference-leg drop scoped to this leg.
	if err := conn.Hangup(); err != nil {
		LogError(LTSession, "Connection hangup failed: "+err.Error())
	}
}

// Merge conferences this session with the background call.
func (s *Session) Merge() {
	s.mu.Lock()
	ph := s.phoneLocked()
	s.mu.Unlock()
	if ph == nil {
		return
	}
	if err := ph.Conference(); err != nil {
		LogError(LTSession, "Failed to conference call: "+err.Error())
	}
}

func (s *Session) AddParticipant(participant string) {
	s.mu.Lock()
	ph := s.phoneLocked()
	s.mu.Unlock()
	if ph == nil {
		return
	}
	if err := ph.AddParticipant(participant); err != nil {
		LogError(LTSession, "Failed to add participant: "+err.Error())
	}
}

func (s *Session) Separate() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	if err := conn.Separate(); err != nil {
		LogError(LTSession, "Separate failed: "+err.Error())
	}
}

func (s *Session) DisconnectParticipant(endpoint string) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	if err := conn.DisconnectParticipant(endpoint); err != nil {
		LogError(LTSession, "Failed to disconnect participant: "+err.Error())
	}
}

func (s *Session) PostDialContinue(proceed bool) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	var err error
	if proceed {
		err = conn.ProceedAfterWaitChar()
	} else {
		err = conn.CancelPostDial()
	}
	if err != nil {
		LogError(LTSession, "Post-dial continue failed: "+err.Error())
	}
}

// SetVideoPauseSupported marks whether outgoing video can be paused;
// capabilities are recomposed right away.
func (s *Session) SetVideoPauseSupported(supported bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videoPauseSupported = supported
	s.updateCapabilitiesLocked()
}

// RefreshState re-derives the abstract state from the connection's
// current raw state. Called by a sibling session before it activates;
// the caller must not hold any session lock.
func (s *Session) RefreshState() {
	s.mu.Lock()
	s.updateStateLocked(false)
	s.mu.Unlock()
	s.completeActivation()
}

// =========================================================================================================

func (s *Session) phoneLocked() radio.Phone {
	if s.conn == nil {
		return nil
	}
	c := s.conn.Call()
	if c == nil {
		return nil
	}
	return c.Phone()
}

func (s *Session) closeLocked() {
	if s.disposed {
		return
	}
	s.flushCallRecordLocked()
	s.clearRadioConnectionLocked()
	s.mbx.Close()
	s.domain.Delete(s.id)
	s.disposed = true
}

func (s *Session) flushCallRecordLocked() {
	rec := calllog.New()
	rec.Set(calllog.SessionID, s.id)
	rec.Set(calllog.Direction, s.direction.String())
	tech := radio.TechLegacy
	if s.wasEverPremium {
		tech = radio.TechPremium
	}
	rec.Set(calllog.Technology, tech.String())
	rec.Set(calllog.Address, s.address)
	now := time.Now().UTC()
	rec.Set(calllog.StartTime, s.createdAt.Format(time.RFC3339))
	rec.Set(calllog.EndTime, now.Format(time.RFC3339))
	rec.Set(calllog.DurationSeconds, fmt.Sprintf("%d", int(now.Sub(s.createdAt).Seconds())))
	rec.Set(calllog.Cause, s.finalCause.Code.String())
	rec.Set(calllog.VendorCause, s.finalCause.Vendor)
	rec.Set(calllog.WasConference, fmt.Sprintf("%t", s.isMultiparty))
	rec.Set(calllog.WasWifi, fmt.Sprintf("%t", s.isWifi))
	rec.Set(calllog.EmergencyNumber, fmt.Sprintf("%t", s.isEmergency))
	rec.Flush()
}
