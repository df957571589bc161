package entity

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message statuses. The client-local "sending" state is transient UI state
// and is never persisted.
const (
	StatusSent  = "sent"
	StatusRead  = "read"
	StatusError = "error"
)

// Message types.
const (
	TypeText   = "text"
	TypeImage  = "image"
	TypeSystem = "system"
)

// ImagePlaceholder is the last-message summary text for image-only messages.
const ImagePlaceholder = "\U0001F4F7 Photo"

// Message is a single message inside a conversation. Immutable after
// creation except for the read/status transition performed by the
// read-state tracker. Sender identity is denormalized at send time and is
// not updated if the sender later changes their profile.
type Message struct {
	ID             string        `json:"id" bson:"_id"`
	ConversationID string        `json:"conversation_id" bson:"conversation_id"`
	Text           string        `json:"text" bson:"text"`
	ImageURL       string        `json:"image_url,omitempty" bson:"image_url,omitempty"`
	SenderID       string        `json:"sender_id" bson:"sender_id"`
	SenderName     string        `json:"sender_name,omitempty" bson:"sender_name,omitempty"`
	SenderPhoto    string        `json:"sender_photo,omitempty" bson:"sender_photo,omitempty"`
	Timestamp      time.Time     `json:"timestamp" bson:"timestamp"`
	Status         string        `json:"status" bson:"status"`
	Read           bool          `json:"read" bson:"read"`
	Type           string        `json:"type" bson:"type"`
	ReplyTo        *ReplyContext `json:"reply_to,omitempty" bson:"reply_to,omitempty"`
}

// ReplyContext snapshots the message being replied to at reply time. It is
// not kept in sync if the original message is later altered.
type ReplyContext struct {
	MessageID string `json:"message_id" bson:"message_id"`
	Text      string `json:"text" bson:"text"`
	SenderID  string `json:"sender_id" bson:"sender_id"`
	Type      string `json:"type" bson:"type"`
	ImageURL  string `json:"image_url,omitempty" bson:"image_url,omitempty"`
}

// NewMessageID pre-assigns a message identifier. Ids are generated before
// the persistence attempt so a retried send is idempotent.
func NewMessageID() string {
	return uuid.NewString()
}

// HasContent reports whether the message carries any content: non-blank
// text or an image.
func (m *Message) HasContent() bool {
	return strings.TrimSpace(m.Text) != "" || m.ImageURL != ""
}

// SummaryText returns the text used for the conversation's last-message
// summary: the message text, or a placeholder for image-only messages.
func (m *Message) SummaryText() string {
	if strings.TrimSpace(m.Text) == "" && m.ImageURL != "" {
		return ImagePlaceholder
	}
	return m.Text
}

// ValidImageURL reports whether the url is absolute and well-formed.
// An empty url is valid (no image).
func ValidImageURL(raw string) bool {
	if raw == "" {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
