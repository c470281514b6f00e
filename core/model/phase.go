package model

// Phase is the lifecycle state of a charge session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAuthorizing
	PhaseCharging
	PhaseStopping
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseAuthorizing:
		return "Authorizing"
	case PhaseCharging:
		return "Charging"
	case PhaseStopping:
		return "Stopping"
	case PhaseCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Next returns the only phase reachable from p. Completed is terminal and
// returns itself.
func (p Phase) Next() Phase {
	if p >= PhaseCompleted {
		return PhaseCompleted
	}
	return p + 1
}

// MessageType identifies an outbound OCPP action.
type MessageType string

const (
	MessageAuthorize        MessageType = "Authorize"
	MessageStartTransaction MessageType = "StartTransaction"
	MessageMeterValues      MessageType = "MeterValues"
	MessageStopTransaction  MessageType = "StopTransaction"
)

// Attribute returns the backend attribute name a message of this type is
// stored under when frames are wrapped.
func (m MessageType) Attribute() string {
	switch m {
	case MessageAuthorize:
		return "authorize"
	case MessageStartTransaction:
		return "start_transaction"
	case MessageMeterValues:
		return "meter_values"
	case MessageStopTransaction:
		return "stop_transaction"
	default:
		return string(m)
	}
}
