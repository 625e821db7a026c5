package calllog

import (
	"fmt"

	"TCAGo/global"
)

type (
	Field string

	Instance struct {
		data map[Field]string
	}
)

const (
	RecordID        Field = "recordId"        // Unique identifier for the record
	SessionID       Field = "sessionId"       // Session identifier of the call leg
	Direction       Field = "direction"       // Inbound or Outbound
	Technology      Field = "technology"      // Radio technology serving the call
	Address         Field = "address"         // Presented remote address
	StartTime       Field = "startTime"       // Session creation timestamp
	EndTime         Field = "endTime"         // Session disposal timestamp
	DurationSeconds Field = "durationSeconds" // Session duration in seconds
	Cause           Field = "cause"           // Final disconnect cause
	VendorCause     Field = "vendorCause"     // Vendor-specific disconnect detail
	WasConference   Field = "wasConference"   // Indicates the leg hosted a conference
	WasWifi         Field = "wasWifi"         // Indicates the leg ended on Wi-Fi
	EmergencyNumber Field = "emergencyNumber" // Indicates an emergency destination
)

func getAllFields() []Field {
	return []Field{
		RecordID,
		SessionID,
		Direction,
		Technology,
		Address,
		StartTime,
		EndTime,
		DurationSeconds,
		Cause,
		VendorCause,
		WasConference,
		WasWifi,
		EmergencyNumber,
	}
}

func (f Field) String() string {
	return string(f)
}

func CastStringSlice[T fmt.Stringer](input []T) []string {
	output := make([]string, len(input))
	for i, v := range input {
		output[i] = v.String()
	}
	return output
}

func New() *Instance {
	return &Instance{
		data: make(map[Field]string, len(stringfields)),
	}
}

func (inst *Instance) Set(field Field, value string) {
	inst.data[field] = value
}

// Flush hands the record to the writer. Records are dropped when the
// log was never started or its buffer is full; disposal must never
// block on disk.
func (inst *Instance) Flush() {
	select {
	case pipe <- inst.data:
	default:
		if global.Prometrics != nil {
			global.Prometrics.DroppedRecords.Inc()
		}
	}
}
