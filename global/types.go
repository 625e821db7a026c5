package global

import "fmt"

const (
	AdapterNameVersion string = "TCAGo/1.0"
	EntityName         string = "telecom connection adapter"
)

// Default sizing knobs, overridable through config.
const (
	MailboxDepth      int = 64
	CallLogBufferSize int = 500
)

// =========================================================================================================

// SystemError codes.
const (
	ECConfiguration int = iota + 1
	ECRadioLayer
)

type SystemError struct {
	Code    int
	Details string
}

func NewError(code int, details string) error {
	return &SystemError{Code: code, Details: details}
}

func (se *SystemError) Error() string {
	return fmt.Sprintf("Code: %d - Details: %s", se.Code, se.Details)
}

// =========================================================================================================

type Direction int

const (
	INBOUND Direction = iota
	OUTBOUND
)

func (d Direction) String() string {
	if d == INBOUND {
		return "Inbound"
	}
	return "Outbound"
}

// =========================================================================================================

type LogLevel int

const (
	LLInformation LogLevel = iota
	LLWarning
	LLError
)

func (ll LogLevel) String() string {
	switch ll {
	case LLInformation:
		return "INFO"
	case LLWarning:
		return "WARNING"
	default:
		return "ERROR"
	}
}

type LogTitle int

const (
	LTSystem LogTitle = iota
	LTConfiguration
	LTSession
	LTRadioLayer
	LTCapability
	LTCallLog
	LTWebserver
)

func (lt LogTitle) String() string {
	switch lt {
	case LTSystem:
		return "System"
	case LTConfiguration:
		return "Configuration"
	case LTSession:
		return "Session"
	case LTRadioLayer:
		return "RadioLayer"
	case LTCapability:
		return "Capability"
	case LTCallLog:
		return "CallLog"
	default:
		return "Webserver"
	}
}
