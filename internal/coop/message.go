// internal/coop/message.go
//
// Wire model shared by every bus and by the relay endpoint. One JSON object
// per frame.
package coop

import (
	"time"

	"github.com/google/uuid"
)

// Type names a co-op frame.
type Type string

const (
	TypeElement  Type = "element"         // a discovery, {element, emoji}
	TypeComplete Type = "complete"        // the sender reached the target
	TypePartner  Type = "partner"         // relay status, {status}
	TypeOffer    Type = "continue_offer"  // post-win "continue together?"
	TypeAnswer   Type = "continue_answer" // {accept}
)

// Partner status values carried by TypePartner frames.
const (
	StatusJoined = "joined"
	StatusLeft   = "left"
)

// Message is one co-op frame.
type Message struct {
	ID      string `json:"id"`
	Type    Type   `json:"type"`
	Element string `json:"element,omitempty"`
	Emoji   string `json:"emoji,omitempty"`
	Target  string `json:"target,omitempty"`
	Status  string `json:"status,omitempty"`
	Accept  bool   `json:"accept,omitempty"`
	SentAt  int64  `json:"sentAt"`
}

// NewMessage stamps a frame with a fresh id and the current time.
func NewMessage(t Type) Message {
	return Message{ID: uuid.NewString(), Type: t, SentAt: time.Now().UnixMilli()}
}

// ElementMessage announces a discovery.
func ElementMessage(name, emoji string) Message {
	m := NewMessage(TypeElement)
	m.Element, m.Emoji = name, emoji
	return m
}

// CompleteMessage announces that target was reached.
func CompleteMessage(target string) Message {
	m := NewMessage(TypeComplete)
	m.Target = target
	return m
}

// StatusMessage is emitted by the relay when a peer joins or leaves.
func StatusMessage(status string) Message {
	m := NewMessage(TypePartner)
	m.Status = status
	return m
}
