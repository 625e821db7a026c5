package state

type SessionState int

const (
	New SessionState = iota
	Dialing
	Ringing
	Active
	Holding
	Disconnected
)

func (ss SessionState) String() string {
	switch ss {
	case New:
		return "New"
	case Dialing:
		return "Dialing"
	case Ringing:
		return "Ringing"
	case Active:
		return "Active"
	case Holding:
		return "Holding"
	default:
		return "Disconnected"
	}
}

func (ss SessionState) IsTerminal() bool {
	return ss == Disconnected
}

// IsLive reports whether the session holds an established call leg.
func (ss SessionState) IsLive() bool {
	return ss == Active || ss == Holding
}
