package chat

import (
	"context"
	"fmt"
	"log/slog"

	"MarketChat/entity"
	"MarketChat/internal/lib/sl"
)

// ResolveInput describes the conversation a caller wants: a participant
// set (the first entry is the initiator), an optional business context and
// best-effort display metadata.
type ResolveInput struct {
	Participants        []string
	BusinessContextID   string
	BusinessContextName string
	DisplayNames        map[string]string
	PhotoURLs           map[string]string
}

// Resolve finds or creates the single conversation for the given
// participant set and business context and returns its id. A soft-deleted
// match is reactivated for the initiator. Creation is guarded by a store
// transaction that re-checks existence, so concurrent resolves for the
// same pair converge on one conversation; losing that race returns the
// winner's id, never an error.
func (s *Service) Resolve(ctx context.Context, in ResolveInput) (string, error) {
	if err := validateParticipants(in.Participants); err != nil {
		return "", err
	}

	initiator := in.Participants[0]

	existing, err := s.repository.FindConversation(ctx, in.Participants, in.BusinessContextID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, s.refreshExisting(ctx, existing, initiator, in)
	}

	conv := entity.NewConversation(in.Participants, in.DisplayNames, in.PhotoURLs)
	conv.BusinessContextID = in.BusinessContextID
	conv.BusinessContextName = in.BusinessContextName

	outcome, err := s.repository.FindOrCreateConversation(ctx, conv)
	if err != nil {
		return "", err
	}
	if !outcome.Created {
		s.log.With(
			slog.String("conversation_id", outcome.Conversation.ID),
			slog.String("initiator", initiator),
		).Debug("resolve lost creation race, returning winner")
		return outcome.Conversation.ID, s.refreshExisting(ctx, outcome.Conversation, initiator, in)
	}

	s.log.With(
		slog.String("conversation_id", conv.ID),
		slog.Int("participants", len(conv.Participants)),
	).Debug("conversation created")
	return conv.ID, nil
}

// refreshExisting reactivates a conversation hidden from the initiator and
// applies best-effort display metadata updates.
func (s *Service) refreshExisting(ctx context.Context, conv *entity.Conversation, initiator string, in ResolveInput) error {
	fields := map[string]any{}
	if conv.DeletedForUser(initiator) {
		fields[fmt.Sprintf("deleted_for.%s", initiator)] = false
	}
	for _, p := range conv.Participants {
		if name, ok := in.DisplayNames[p]; ok && name != "" && conv.ParticipantNames[p] != name {
			fields[fmt.Sprintf("participant_names.%s", p)] = name
		}
		if photo, ok := in.PhotoURLs[p]; ok && photo != "" && conv.ParticipantPhotos[p] != photo {
			fields[fmt.Sprintf("participant_photos.%s", p)] = photo
		}
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.repository.UpdateConversationFields(ctx, conv.ID, fields); err != nil {
		// Metadata refresh is best-effort, but reactivation is not.
		if conv.DeletedForUser(initiator) {
			return err
		}
		s.log.With(sl.Err(err), slog.String("conversation_id", conv.ID)).Warn("display metadata refresh failed")
	}
	return nil
}

func validateParticipants(participants []string) error {
	if len(participants) < 2 {
		return entity.InvalidInput("at least two participants required")
	}
	seen := map[string]bool{}
	for _, p := range participants {
		if p == "" {
			return entity.InvalidInput("empty participant id")
		}
		if seen[p] {
			if len(participants) == 2 {
				return entity.InvalidInput("conversation with yourself is not allowed")
			}
			return entity.InvalidInput("duplicate participant id")
		}
		seen[p] = true
	}
	return nil
}
