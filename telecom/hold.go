package telecom

import (
	. "TCAGo/global"
	"TCAGo/radio"
)

// Hold parks this session. The underlying switch primitive swaps the
// holding and active calls, which would also answer a ringing
// call-waiting call, so the request is skipped entirely while one is
// waiting.
func (s *Session) Hold() {
	s.mu.Lock()
	if s.rawState != radio.StateActive {
		s.mu.Unlock()
		LogWarning(LTSession, "Cannot put a call that is not currently active on hold")
		return
	}
	ph := s.phoneLocked()
	s.mu.Unlock()
	if ph == nil {
		return
	}
	if rc := ph.RingingCall(); rc != nil && rc.State() == radio.StateWaiting {
		LogInfo(LTSession, "Skipping hold for "+s.id+": call-waiting call is ringing")
		return
	}
	if err := ph.SwitchHoldingAndActive(); err != nil {
		LogError(LTSession, "Exception occurred while trying to put call on hold: "+err.Error())
	}
}

// Unhold resumes this session. With more than one top-level call
// present the swap primitive is ambiguous about which call comes back,
// so the request is skipped and the switch is left in charge.
func (s *Session) Unhold() {
	s.mu.Lock()
	if s.rawState != radio.StateHolding {
		s.mu.Unlock()
		LogWarning(LTSession, "Cannot release a call that is not already on hold from hold")
		return
	}
	ph := s.phoneLocked()
	s.mu.Unlock()
	if ph == nil {
		return
	}
	if hasMultipleTopLevelCalls(ph) {
		LogInfo(LTSession, "Skipping unhold command for "+s.id)
		return
	}
	if err := ph.SwitchHoldingAndActive(); err != nil {
		LogError(LTSession, "Exception occurred while trying to release call from hold: "+err.Error())
	}
}

func hasMultipleTopLevelCalls(ph radio.Phone) bool {
	count := 0
	if c := ph.RingingCall(); c != nil && !c.IsIdle() {
		count++
	}
	if c := ph.ForegroundCall(); c != nil && !c.IsIdle() {
		count++
	}
	if c := ph.BackgroundCall(); c != nil && !c.IsIdle() {
		count++
	}
	return count > 1
}

// isValidRingingCallLocked reports whether this session's connection is
// the earliest connection of a call that is actually ringing.
func (s *Session) isValidRingingCallLocked() bool {
	if s.conn == nil {
		return false
	}
	ph := s.phoneLocked()
	if ph == nil {
		return false
	}
	rc := ph.RingingCall()
	if rc == nil || !rc.State().IsRinging() {
		return false
	}
	return rc.EarliestConnection() == s.conn
}
