package entity

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a persistent thread between a fixed set of participants,
// optionally anchored to a business entity. The last message summary,
// unread counters and soft-delete flags are denormalized onto the document
// and maintained transactionally by the message dispatcher.
type Conversation struct {
	ID                  string            `json:"id" bson:"_id"`
	Participants        []string          `json:"participants" bson:"participants"`
	ParticipantNames    map[string]string `json:"participant_names" bson:"participant_names"`
	ParticipantPhotos   map[string]string `json:"participant_photos" bson:"participant_photos"`
	BusinessContextID   string            `json:"business_context_id,omitempty" bson:"business_context_id,omitempty"`
	BusinessContextName string            `json:"business_context_name,omitempty" bson:"business_context_name,omitempty"`
	LastMessage         *LastMessage      `json:"last_message,omitempty" bson:"last_message,omitempty"`
	UnreadCounts        map[string]int    `json:"unread_counts" bson:"unread_counts"`
	DeletedFor          map[string]bool   `json:"deleted_for" bson:"deleted_for"`
	CreatedAt           time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at" bson:"updated_at"`
}

// ResolveOutcome is the typed result of a find-or-create: either this call
// created the conversation, or a concurrent caller won the race and the
// existing document is returned. A lost race is a success path, never an
// error.
type ResolveOutcome struct {
	Conversation *Conversation
	Created      bool
}

// LastMessage is the denormalized summary of the most recent message.
type LastMessage struct {
	Text      string    `json:"text" bson:"text"`
	SenderID  string    `json:"sender_id" bson:"sender_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// DefaultDisplayName is used when a participant has no stored display name.
const DefaultDisplayName = "Member"

// NewConversation builds a conversation with zeroed counters and all
// soft-delete flags cleared. Participant order is preserved; the first
// participant is the initiator.
func NewConversation(participants []string, names, photos map[string]string) *Conversation {
	now := time.Now().UTC()
	conv := &Conversation{
		ID:                uuid.NewString(),
		Participants:      participants,
		ParticipantNames:  map[string]string{},
		ParticipantPhotos: map[string]string{},
		UnreadCounts:      map[string]int{},
		DeletedFor:        map[string]bool{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, p := range participants {
		conv.UnreadCounts[p] = 0
		conv.DeletedFor[p] = false
		if name, ok := names[p]; ok && name != "" {
			conv.ParticipantNames[p] = name
		}
		if photo, ok := photos[p]; ok && photo != "" {
			conv.ParticipantPhotos[p] = photo
		}
	}
	return conv
}

// HasParticipant reports whether the user is a member of the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// SameParticipants reports whether the conversation's participant set is
// exactly the given one, order-independent.
func (c *Conversation) SameParticipants(participants []string) bool {
	if len(c.Participants) != len(participants) {
		return false
	}
	for _, p := range participants {
		if !c.HasParticipant(p) {
			return false
		}
	}
	return true
}

// DeletedForUser reports whether the conversation is soft-deleted for the user.
func (c *Conversation) DeletedForUser(userID string) bool {
	return c.DeletedFor[userID]
}

// DisplayName returns the stored display name of a participant, falling
// back to a generic label when missing.
func (c *Conversation) DisplayName(userID string) string {
	if name, ok := c.ParticipantNames[userID]; ok && name != "" {
		return name
	}
	return DefaultDisplayName
}
