package ocpp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kilianp07/cpsim/core/model"
)

// CallType is the OCPP message type id of a CALL frame.
const CallType = 2

// Frame is one OCPP CALL.
type Frame struct {
	UniqueID string
	Action   model.MessageType
	Payload  json.RawMessage
}

// NewCall builds a CALL frame with a fresh correlation id.
func NewCall(action model.MessageType, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("ocpp: encode %s payload: %w", action, err)
	}
	return Frame{UniqueID: uuid.NewString(), Action: action, Payload: raw}, nil
}

// MarshalJSON renders the frame as [2, uniqueId, action, payload].
func (f Frame) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{CallType, f.UniqueID, string(f.Action), f.Payload})
}

// Encode serialises the frame. With wrap set the frame is nested under the
// backend attribute of its action.
func (f Frame) Encode(wrap bool) ([]byte, error) {
	if !wrap {
		return json.Marshal(f)
	}
	return json.Marshal(map[string]Frame{f.Action.Attribute(): f})
}

// Parse decodes a bare or wrapped CALL frame.
func Parse(data []byte) (*Frame, error) {
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err == nil {
		if len(wrapped) != 1 {
			return nil, errors.New("ocpp: wrapped frame must have exactly one attribute")
		}
		for _, inner := range wrapped {
			data = inner
		}
	}

	var array []json.RawMessage
	if err := json.Unmarshal(data, &array); err != nil {
		return nil, err
	}
	if len(array) != 4 {
		return nil, errors.New("ocpp: malformed frame")
	}
	var msgType int
	if err := json.Unmarshal(array[0], &msgType); err != nil {
		return nil, err
	}
	if msgType != CallType {
		return nil, fmt.Errorf("ocpp: unsupported message type %d", msgType)
	}
	f := &Frame{Payload: array[3]}
	if err := json.Unmarshal(array[1], &f.UniqueID); err != nil {
		return nil, fmt.Errorf("ocpp: read unique id: %w", err)
	}
	var action string
	if err := json.Unmarshal(array[2], &action); err != nil {
		return nil, fmt.Errorf("ocpp: read action: %w", err)
	}
	f.Action = model.MessageType(action)
	return f, nil
}
