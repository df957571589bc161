package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"MarketChat/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRepo is an in-memory Repository. Every mutating call holds the
// mutex for its full duration, modelling the store's transactional
// read-your-writes guarantee, and notifies all open change feeds.
type fakeRepo struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
	watchers      map[int]chan struct{}
	nextWatcher   int
	clock         time.Time

	saveErr  error
	watchErr error
	listErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		conversations: map[string]*entity.Conversation{},
		messages:      map[string][]*entity.Message{},
		watchers:      map[int]chan struct{}{},
		clock:         time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeRepo) notify() {
	for _, ch := range f.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func copyConversation(c *entity.Conversation) *entity.Conversation {
	out := *c
	out.Participants = append([]string{}, c.Participants...)
	out.ParticipantNames = map[string]string{}
	for k, v := range c.ParticipantNames {
		out.ParticipantNames[k] = v
	}
	out.ParticipantPhotos = map[string]string{}
	for k, v := range c.ParticipantPhotos {
		out.ParticipantPhotos[k] = v
	}
	out.UnreadCounts = map[string]int{}
	for k, v := range c.UnreadCounts {
		out.UnreadCounts[k] = v
	}
	out.DeletedFor = map[string]bool{}
	for k, v := range c.DeletedFor {
		out.DeletedFor[k] = v
	}
	if c.LastMessage != nil {
		lm := *c.LastMessage
		out.LastMessage = &lm
	}
	return &out
}

func (f *fakeRepo) GetConversation(_ context.Context, id string) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return nil, entity.NotFound(fmt.Sprintf("conversation %s", id))
	}
	return copyConversation(conv), nil
}

func (f *fakeRepo) ListConversationsForParticipant(_ context.Context, userID string) ([]entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Conversation
	for _, conv := range f.conversations {
		if conv.HasParticipant(userID) {
			out = append(out, *copyConversation(conv))
		}
	}
	return out, nil
}

func (f *fakeRepo) findLocked(participants []string, businessContextID string) *entity.Conversation {
	for _, conv := range f.conversations {
		if conv.SameParticipants(participants) && conv.BusinessContextID == businessContextID {
			return conv
		}
	}
	return nil
}

func (f *fakeRepo) FindConversation(_ context.Context, participants []string, businessContextID string) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conv := f.findLocked(participants, businessContextID); conv != nil {
		return copyConversation(conv), nil
	}
	return nil, nil
}

func (f *fakeRepo) FindOrCreateConversation(_ context.Context, conv *entity.Conversation) (*entity.ResolveOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing := f.findLocked(conv.Participants, conv.BusinessContextID); existing != nil {
		return &entity.ResolveOutcome{Conversation: copyConversation(existing), Created: false}, nil
	}
	stored := copyConversation(conv)
	f.conversations[stored.ID] = stored
	f.notify()
	return &entity.ResolveOutcome{Conversation: copyConversation(stored), Created: true}, nil
}

func (f *fakeRepo) UpdateConversationFields(_ context.Context, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return entity.NotFound(fmt.Sprintf("conversation %s", id))
	}
	bumped := false
	for path, value := range fields {
		var key string
		switch {
		case pathPrefix(path, "deleted_for.", &key):
			conv.DeletedFor[key] = value.(bool)
		case pathPrefix(path, "participant_names.", &key):
			conv.ParticipantNames[key] = value.(string)
		case pathPrefix(path, "participant_photos.", &key):
			conv.ParticipantPhotos[key] = value.(string)
		case pathPrefix(path, "unread_counts.", &key):
			conv.UnreadCounts[key] = value.(int)
		case path == "updated_at":
			conv.UpdatedAt = value.(time.Time)
			bumped = true
		}
	}
	if !bumped {
		conv.UpdatedAt = f.tick()
	}
	f.notify()
	return nil
}

func pathPrefix(path, prefix string, key *string) bool {
	if len(path) > len(prefix) && path[:len(prefix)] == prefix {
		*key = path[len(prefix):]
		return true
	}
	return false
}

func (f *fakeRepo) SaveMessage(_ context.Context, msg *entity.Message) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	for _, stored := range f.messages[msg.ConversationID] {
		if stored.ID == msg.ID {
			out := *stored
			return &out, nil
		}
	}
	conv, ok := f.conversations[msg.ConversationID]
	if !ok {
		return nil, entity.NotFound(fmt.Sprintf("conversation %s", msg.ConversationID))
	}

	now := f.tick()
	msg.Timestamp = now
	msg.Status = entity.StatusSent
	msg.Read = false

	stored := *msg
	f.messages[msg.ConversationID] = append(f.messages[msg.ConversationID], &stored)

	conv.LastMessage = &entity.LastMessage{Text: msg.SummaryText(), SenderID: msg.SenderID, Timestamp: now}
	conv.UpdatedAt = now
	conv.UnreadCounts[msg.SenderID] = 0
	for _, p := range conv.Participants {
		conv.DeletedFor[p] = false
		if p != msg.SenderID {
			conv.UnreadCounts[p]++
		}
	}
	f.notify()
	out := stored
	return &out, nil
}

// ListMessages returns the window newest first, matching the store's
// descending page order.
func (f *fakeRepo) ListMessages(_ context.Context, conversationID string, limit int) ([]entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	all := f.messages[conversationID]
	var out []entity.Message
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *all[i])
	}
	return out, nil
}

func (f *fakeRepo) MarkMessagesRead(_ context.Context, conversationID, readerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[conversationID]
	if !ok {
		return 0, entity.NotFound(fmt.Sprintf("conversation %s", conversationID))
	}
	var marked int64
	for _, msg := range f.messages[conversationID] {
		if !msg.Read && msg.SenderID != readerID {
			msg.Read = true
			msg.Status = entity.StatusRead
			marked++
		}
	}
	if marked == 0 {
		return 0, nil
	}
	conv.UnreadCounts[readerID] = 0
	f.notify()
	return marked, nil
}

type fakeFeed struct {
	ch     chan struct{}
	remove func()
	err    error
}

func (f *fakeFeed) Next(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case _, ok := <-f.ch:
		return ok
	}
}

func (f *fakeFeed) Err() error { return f.err }
func (f *fakeFeed) Close()     { f.remove() }

func (f *fakeRepo) openFeed() (ChangeFeed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	id := f.nextWatcher
	f.nextWatcher++
	ch := make(chan struct{}, 16)
	f.watchers[id] = ch
	return &fakeFeed{
		ch: ch,
		remove: func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.watchers, id)
		},
	}, nil
}

func (f *fakeRepo) WatchConversation(context.Context, string) (ChangeFeed, error) {
	return f.openFeed()
}

func (f *fakeRepo) WatchMessages(context.Context, string) (ChangeFeed, error) {
	return f.openFeed()
}

func (f *fakeRepo) WatchUserConversations(context.Context, string) (ChangeFeed, error) {
	return f.openFeed()
}

func newTestService(repo Repository) *Service {
	svc := NewService(discardLogger())
	svc.SetRepository(repo)
	return svc
}
