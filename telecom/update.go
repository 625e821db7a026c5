package telecom

import (
	"fmt"
	"strings"

	. "TCAGo/global"
	"TCAGo/radio"
	"TCAGo/telecom/cause"
	"TCAGo/telecom/state"
)

// updateStateLocked compares the connection's raw state against the
// cached copy and, on a change (or when forced), runs the matching
// abstract transition. Every pass through here ends with the full
// derived-attribute refresh so that state and attributes never drift
// apart.
func (s *Session) updateStateLocked(force bool) {
	if s.conn == nil {
		return
	}
	newState := s.conn.State()
	if s.rawState != newState || force {
		LogInfo(LTSession, fmt.Sprintf("Session %s raw state %s -> %s", s.id, s.rawState.String(), newState.String()))
		s.rawState = newState
		switch newState {
		case radio.StateIdle:
			// nothing to translate
		case radio.StateActive:
			s.beginActivationLocked()
		case radio.StateHolding:
			s.setAbstractLocked(state.Holding)
		case radio.StateDialing, radio.StateAlerting:
			s.setAbstractLocked(state.Dialing)
		case radio.StateIncoming, radio.StateWaiting:
			s.setAbstractLocked(state.Ringing)
		case radio.StateDisconnecting:
			// transient, wait for the terminal report
		case radio.StateDisconnected:
			s.resolveDisconnectLocked()
			return
		}
	}
	s.refreshLocked()
}

// refreshLocked re-derives every connection-dependent attribute, in a
// fixed order so capability bits are current before the status hints
// and address that read them.
func (s *Session) refreshLocked() {
	s.updateCapabilitiesLocked()
	s.updateStatusHintsLocked()
	s.updateAddressLocked()
	s.updateMultipartyLocked()
}

// beginActivationLocked records that this session should activate. The
// sibling walk that enforces the single-ACTIVE rule touches other
// sessions' locks, so it must not run here. Every path that can mark an
// activation pending finishes it with completeActivation after
// releasing mu.
func (s *Session) beginActivationLocked() {
	if s.abstract == state.Active {
		LogWarning(LTSession, "Should not be called if this call is already active - skipped")
		return
	}
	s.activationPending = true
}

// completeActivation runs the sibling walk without holding this
// session's lock: every sibling that still reports Active is told to
// re-derive its state first (the radio layer has already moved it to
// holding or disconnected, the sibling just has not processed that
// yet), then this session re-checks and activates. Sessions only ever
// hold one session lock at a time here, so concurrent activations
// cannot wedge on each other.
func (s *Session) completeActivation() {
	s.mu.Lock()
	pending := s.activationPending
	s.activationPending = false
	s.mu.Unlock()
	if !pending {
		return
	}
	for _, other := range s.domain.Others(s) {
		if other.State() == state.Active {
			other.RefreshState()
		}
	}
	s.mu.Lock()
	if !s.disposed && s.conn != nil && s.rawState == radio.StateActive && s.abstract != state.Active {
		s.setAbstractLocked(state.Active)
		s.refreshLocked()
	}
	s.mu.Unlock()
}

func (s *Session) setAbstractLocked(newState state.SessionState) {
	if s.abstract == newState {
		return
	}
	oldState := s.abstract
	s.abstract = newState
	if Prometrics != nil {
		if newState == state.Active {
			Prometrics.ActiveSessions.Inc()
		}
		if oldState == state.Active {
			Prometrics.ActiveSessions.Dec()
		}
	}
	s.notifier.StateChanged(s.id, oldState, newState)
}

// resolveDisconnectLocked maps the raw disconnect report into a final
// cause. A cached supplementary-service notification refines the cause
// exactly once and is consumed here.
func (s *Session) resolveDisconnectLocked() {
	var c cause.Cause
	if s.pendingNotification != nil {
		n := s.pendingNotification
		s.pendingNotification = nil
		c = cause.ResolveNotified(s.conn.DisconnectCause(), s.conn.VendorDisconnectCause(), n.Type, n.Code)
	} else {
		c = cause.Resolve(s.conn.DisconnectCause(), s.conn.VendorDisconnectCause())
	}
	s.finalCause = c
	LogInfo(LTSession, fmt.Sprintf("Session %s disconnected: %s", s.id, c.String()))
	s.setAbstractLocked(state.Disconnected)
	s.notifier.Disconnected(s.id, c)
	if Prometrics != nil {
		Prometrics.Disconnects.Inc()
	}
	s.closeLocked()
}

// =========================================================================================================
// Derived-attribute updaters. Each one is change-detecting: no external
// notification fires when the recomputed value matches the cached one.

func (s *Session) updateCapabilitiesLocked() {
	premium := s.conn != nil && s.conn.Technology() == radio.TechPremium
	in := ComposeInput{
		Raw:                 s.rawCaps,
		Incoming:            s.conn != nil && s.conn.IsIncoming(),
		Premium:             premium,
		WasEverPremium:      s.wasEverPremium || premium,
		EmergencyCallback:   s.inEmergencyCallbackModeLocked(),
		EmergencyNumber:     s.isEmergency,
		State:               s.abstract,
		Wifi:                s.isWifi,
		HighDefAudio:        s.hasHDAudio,
		VideoPauseSupported: s.videoPauseSupported,
		VoicePrivacy:        s.voicePrivacy,
	}
	newCaps := Compose(in)
	if s.capsValid && newCaps == s.caps {
		return
	}
	s.caps = newCaps
	s.capsValid = true
	LogInfo(LTCapability, fmt.Sprintf("Session %s capabilities: %s", s.id, newCaps.String()))
	s.notifier.CapabilitiesChanged(s.id, newCaps)
}

func (s *Session) inEmergencyCallbackModeLocked() bool {
	ph := s.phoneLocked()
	return ph != nil && ph.InEmergencyCallbackMode()
}

func (s *Session) updateStatusHintsLocked() {
	incoming := s.isValidRingingCallLocked()
	var hint string
	if s.isWifi && (incoming || s.abstract == state.Active) {
		if incoming {
			hint = "Incoming Wi-Fi call"
		} else {
			hint = "Wi-Fi call"
		}
	}
	if hint == s.statusHint {
		return
	}
	s.statusHint = hint
	s.notifier.StatusHintChanged(s.id, hint)
}

// updateAddressLocked reconciles the presented address and display name
// with the connection. A non-ringing legacy-technology call keeps
// showing the digits the user actually dialed, since the network-side
// address of such calls may be rewritten mid-call.
func (s *Session) updateAddressLocked() {
	if s.conn == nil {
		return
	}
	var number string
	if s.address != "" && s.conn.Technology() == radio.TechLegacy && !s.isValidRingingCallLocked() {
		number = s.conn.OriginalDialString()
	} else {
		number = s.conn.Address()
	}
	pres := s.conn.NumberPresentation()
	if number != s.address || pres != s.addressPresentation {
		s.address = number
		s.addressPresentation = pres
		s.notifier.AddressChanged(s.id, number, pres)
	}
	name := s.conn.DisplayName()
	namePres := s.conn.DisplayNamePresentation()
	if name != s.displayName || namePres != s.displayNamePresentation {
		s.displayName = name
		s.displayNamePresentation = namePres
		s.notifier.DisplayNameChanged(s.id, name, namePres)
	}
}

func (s *Session) updateMultipartyLocked() {
	if s.conn == nil {
		return
	}
	s.handleMultipartyLocked(s.conn.IsMultiparty())
}

func (s *Session) handleMultipartyLocked(isMultiparty bool) {
	if s.isMultiparty == isMultiparty {
		return
	}
	s.isMultiparty = isMultiparty
	if isMultiparty {
		LogInfo(LTSession, fmt.Sprintf("Session %s became a conference host", s.id))
		s.notifier.ConferenceStarted(s.id)
		if Prometrics != nil {
			Prometrics.Conferences.Inc()
		}
	}
}

func (s *Session) notifyConferenceMergeFailedLocked() {
	LogWarning(LTSession, fmt.Sprintf("Session %s conference merge failed", s.id))
	s.notifier.ConferenceMergeFailed(s.id)
	if Prometrics != nil {
		Prometrics.MergeFailures.Inc()
	}
}

// =========================================================================================================
// Event handlers with per-kind screening.

// handleRingbackLocked only honors ringback for the foreground call's
// earliest connection; background legs must not drive the ringback
// tone.
func (s *Session) handleRingbackLocked(on bool) {
	if s.conn == nil {
		return
	}
	ph := s.phoneLocked()
	if ph == nil {
		return
	}
	fg := ph.ForegroundCall()
	if fg == nil || fg.EarliestConnection() != s.conn {
		LogInfo(LTSession, fmt.Sprintf("Ignoring ringback for non-foreground session %s", s.id))
		return
	}
	if s.ringback == on {
		return
	}
	s.ringback = on
	s.notifier.RingbackChanged(s.id, on)
}

// handleHandoverLocked swaps in the post-handover connection when it
// provably belongs to this session: either the addresses overlap, or
// the new connection's state matches what the old one reported before
// the handover started. Returns whether the swap happened (the
// configured callback then fires).
func (s *Session) handleHandoverLocked(newConn radio.Connection) bool {
	if s.conn == nil || newConn == nil || newConn == s.conn {
		return false
	}
	sameAddress := newConn.Address() != "" && s.conn.Address() != "" &&
		strings.Contains(s.conn.Address(), newConn.Address())
	if !sameAddress && s.conn.StateBeforeHandover() != newConn.State() {
		return false
	}
	LogInfo(LTSession, fmt.Sprintf("Session %s handover to %s connection", s.id, newConn.Technology().String()))
	s.wasEverPremium = false
	s.setRadioConnectionLocked(newConn)
	return true
}

// handleSuppServiceLocked caches the notification for the eventual
// disconnect-cause resolution and folds any call-history lines into the
// session extras.
func (s *Session) handleSuppServiceLocked(n *radio.SuppServiceNotification) {
	if n == nil {
		return
	}
	s.pendingNotification = n
	if len(n.History) == 0 {
		return
	}
	extras := CloneStringMap(s.extras)
	extras["callHistoryInfo"] = strings.Join(n.History, ";")
	s.reconcileExtrasLocked(extras)
}

// reconcileExtrasLocked replaces the cached extras wholesale when the
// incoming bundle differs by value; a changed set is propagated as one
// unit.
func (s *Session) reconcileExtrasLocked(incoming map[string]string) {
	if incoming == nil {
		return
	}
	if StringMapsEqual(s.extras, incoming) {
		return
	}
	s.extras = CloneStringMap(incoming)
	s.notifier.ExtrasChanged(s.id, CloneStringMap(incoming))
}

func (s *Session) setVideoStateLocked(videoState int) {
	if s.videoState == videoState {
		return
	}
	s.videoState = videoState
	s.notifier.VideoStateChanged(s.id, videoState)
}

func (s *Session) setVideoProviderLocked(provider radio.VideoProvider) {
	if s.provider == provider {
		return
	}
	s.provider = provider
	s.notifier.VideoProviderChanged(s.id, provider)
}
