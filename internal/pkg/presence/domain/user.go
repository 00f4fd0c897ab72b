package presence

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Vibe is one of the four mood quadrants a user can place themselves in.
// A nil *Vibe means the user has joined but not picked a quadrant yet.
type Vibe string

const (
	VibeHighPleasant   Vibe = "high-pleasant"
	VibeHighUnpleasant Vibe = "high-unpleasant"
	VibeLowPleasant    Vibe = "low-pleasant"
	VibeLowUnpleasant  Vibe = "low-unpleasant"
)

const (
	// StaleThreshold is how long a user stays in active listings without a
	// heartbeat. Rows older than this are filtered at read time, never
	// pushed out via events.
	StaleThreshold = 10 * time.Minute

	MaxNameLength    = 20
	MaxMessageLength = 80
)

var ErrUnknownVibe = errors.New("unknown vibe")

// ParseVibe maps a wire value to a Vibe. Empty string means unset.
func ParseVibe(s string) (*Vibe, error) {
	if s == "" {
		return nil, nil
	}
	switch v := Vibe(s); v {
	case VibeHighPleasant, VibeHighUnpleasant, VibeLowPleasant, VibeLowUnpleasant:
		return &v, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVibe, s)
}

// UserPresence is one active participant on the board. LastSeen is epoch
// milliseconds and doubles as the freshness marker for staleness filtering.
type UserPresence struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Vibe     *Vibe  `json:"vibe"`
	LastSeen int64  `json:"lastSeen"`
}

// NewUserPresence validates and normalizes a presence row. The name is
// trimmed; id and name are required, name is capped at MaxNameLength runes.
func NewUserPresence(id, name string, vibe *Vibe, lastSeen int64) (*UserPresence, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, fmt.Errorf("name exceeds %d characters", MaxNameLength)
	}
	return &UserPresence{ID: id, Name: name, Vibe: vibe, LastSeen: lastSeen}, nil
}

// DirectMessage is an ephemeral ping between two users. It only ever exists
// as an in-flight broadcast event and is never persisted.
type DirectMessage struct {
	ToID     string `json:"toId"`
	FromName string `json:"fromName"`
	Text     string `json:"text"`
}

// NewDirectMessage validates a ping. All fields are required and the text is
// capped at MaxMessageLength runes, re-checking the client-side limit.
func NewDirectMessage(toID, fromName, text string) (*DirectMessage, error) {
	if strings.TrimSpace(toID) == "" {
		return nil, errors.New("toId is required")
	}
	fromName = strings.TrimSpace(fromName)
	if fromName == "" {
		return nil, errors.New("fromName is required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text is required")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, fmt.Errorf("text exceeds %d characters", MaxMessageLength)
	}
	return &DirectMessage{ToID: toID, FromName: fromName, Text: text}, nil
}
