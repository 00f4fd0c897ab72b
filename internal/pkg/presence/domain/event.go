package presence

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event names carried on the broadcast channel. The set is closed: anything
// else coming off the wire is rejected at the subscription boundary before it
// can reach reconciliation logic.
const (
	EventUserUpdated = "user-updated"
	EventUserRemoved = "user-removed"
	EventUserMessage = "user-message"
)

var ErrUnknownEvent = errors.New("unknown event")

// Event is the tagged variant decoded from a broadcast frame. Exactly one of
// Updated, Removed or Message is non-nil, matching Name.
type Event struct {
	Name    string
	Updated *UserPresence
	Removed *RemovedUser
	Message *DirectMessage
}

// RemovedUser is the payload of a user-removed event.
type RemovedUser struct {
	ID string `json:"id"`
}

type eventFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewUserUpdatedEvent builds the event published after every upsert.
func NewUserUpdatedEvent(u UserPresence) Event {
	return Event{Name: EventUserUpdated, Updated: &u}
}

// NewUserRemovedEvent builds the event published after an explicit removal.
func NewUserRemovedEvent(id string) Event {
	return Event{Name: EventUserRemoved, Removed: &RemovedUser{ID: id}}
}

// NewUserMessageEvent builds the fire-and-forget direct message event.
func NewUserMessageEvent(m DirectMessage) Event {
	return Event{Name: EventUserMessage, Message: &m}
}

// Encode serializes the event into the broadcast frame format.
func (e Event) Encode() ([]byte, error) {
	var data any
	switch e.Name {
	case EventUserUpdated:
		data = e.Updated
	case EventUserRemoved:
		data = e.Removed
	case EventUserMessage:
		data = e.Message
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, e.Name)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventFrame{Event: e.Name, Data: raw})
}

// DecodeEvent validates a broadcast frame into the closed variant set.
func DecodeEvent(payload []byte) (Event, error) {
	var frame eventFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return Event{}, fmt.Errorf("decode event frame: %w", err)
	}

	switch frame.Event {
	case EventUserUpdated:
		var u UserPresence
		if err := json.Unmarshal(frame.Data, &u); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", frame.Event, err)
		}
		if u.ID == "" || u.Name == "" {
			return Event{}, fmt.Errorf("decode %s: id and name required", frame.Event)
		}
		if u.Vibe != nil {
			if _, err := ParseVibe(string(*u.Vibe)); err != nil {
				return Event{}, fmt.Errorf("decode %s: %w", frame.Event, err)
			}
		}
		return Event{Name: frame.Event, Updated: &u}, nil
	case EventUserRemoved:
		var r RemovedUser
		if err := json.Unmarshal(frame.Data, &r); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", frame.Event, err)
		}
		if r.ID == "" {
			return Event{}, fmt.Errorf("decode %s: id required", frame.Event)
		}
		return Event{Name: frame.Event, Removed: &r}, nil
	case EventUserMessage:
		var m DirectMessage
		if err := json.Unmarshal(frame.Data, &m); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", frame.Event, err)
		}
		if m.ToID == "" || m.FromName == "" || m.Text == "" {
			return Event{}, fmt.Errorf("decode %s: toId, fromName and text required", frame.Event)
		}
		return Event{Name: frame.Event, Message: &m}, nil
	}
	return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, frame.Event)
}
