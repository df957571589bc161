package chat

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"MarketChat/entity"
	"MarketChat/internal/lib/sl"
)

// Subscription states, tracked per subscription goroutine. Transient
// stream errors re-enter streaming automatically; closed is reached only
// through unsubscribe.
const (
	stateConnecting int32 = iota
	stateStreaming
	stateError
	stateClosed
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Unsubscribe cancels a subscription. Safe to call multiple times; no
// callbacks fire after it returns, barring a delivery already in flight.
type Unsubscribe func()

// SubscribeConversation emits the full normalized conversation on every
// change to its document.
func (s *Service) SubscribeConversation(id string, onUpdate func(*entity.Conversation), onError func(error)) Unsubscribe {
	return s.subscribe(
		func(ctx context.Context) (ChangeFeed, error) {
			return s.repository.WatchConversation(ctx, id)
		},
		func(ctx context.Context) error {
			conv, err := s.repository.GetConversation(ctx, id)
			if err != nil {
				return err
			}
			onUpdate(normalizeConversation(conv))
			return nil
		},
		onError,
		slog.String("conversation_id", id),
	)
}

// SubscribeMessages emits the most recent windowSize messages of the
// conversation, normalized and sorted ascending by the store-assigned
// timestamp, on every change.
func (s *Service) SubscribeMessages(conversationID string, windowSize int, onUpdate func([]entity.Message), onError func(error)) Unsubscribe {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return s.subscribe(
		func(ctx context.Context) (ChangeFeed, error) {
			return s.repository.WatchMessages(ctx, conversationID)
		},
		func(ctx context.Context) error {
			messages, err := s.repository.ListMessages(ctx, conversationID, windowSize)
			if err != nil {
				return err
			}
			onUpdate(normalizeMessages(messages))
			return nil
		},
		onError,
		slog.String("conversation_id", conversationID),
	)
}

// SubscribeUserConversations emits the user's conversation list, filtered
// of soft-deleted entries and ordered by newest activity, on every change
// to any conversation the user participates in.
func (s *Service) SubscribeUserConversations(userID string, onUpdate func([]entity.Conversation), onError func(error)) Unsubscribe {
	return s.subscribe(
		func(ctx context.Context) (ChangeFeed, error) {
			return s.repository.WatchUserConversations(ctx, userID)
		},
		func(ctx context.Context) error {
			all, err := s.repository.ListConversationsForParticipant(ctx, userID)
			if err != nil {
				return err
			}
			onUpdate(visibleConversations(all, userID))
			return nil
		},
		onError,
		slog.String("user_id", userID),
	)
}

// subscribe runs the shared Connecting -> Streaming -> (Error | Closed)
// loop: open the change feed, emit one initial snapshot, then re-emit on
// every change event. A broken feed reports through onError and the loop
// reconnects with backoff; cancellation through the returned Unsubscribe
// is the only way out.
func (s *Service) subscribe(open func(context.Context) (ChangeFeed, error), emit func(context.Context) error, onError func(error), tag slog.Attr) Unsubscribe {
	ctx, cancel := context.WithCancel(context.Background())
	state := new(atomic.Int32)
	log := s.log.With(sl.Module("chat-subscription"), tag)

	go func() {
		backoff := initialBackoff
		for {
			state.Store(stateConnecting)
			feed, err := open(ctx)
			if err != nil {
				if ctx.Err() != nil {
					state.Store(stateClosed)
					return
				}
				state.Store(stateError)
				onError(err)
				if !sleep(ctx, backoff) {
					state.Store(stateClosed)
					return
				}
				backoff = nextBackoff(backoff)
				continue
			}

			if err := emit(ctx); err != nil {
				if ctx.Err() == nil {
					state.Store(stateError)
					onError(err)
				}
			} else {
				state.Store(stateStreaming)
			}
			backoff = initialBackoff

			for feed.Next(ctx) {
				if ctx.Err() != nil {
					break
				}
				if err := emit(ctx); err != nil {
					if ctx.Err() == nil {
						state.Store(stateError)
						onError(err)
					}
				} else {
					state.Store(stateStreaming)
				}
			}
			streamErr := feed.Err()
			feed.Close()

			if ctx.Err() != nil {
				state.Store(stateClosed)
				return
			}

			state.Store(stateError)
			if streamErr != nil {
				log.With(sl.Err(streamErr)).Warn("change feed broken, reconnecting")
				onError(entity.Unavailable(streamErr))
			}
			if !sleep(ctx, backoff) {
				state.Store(stateClosed)
				return
			}
			backoff = nextBackoff(backoff)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			state.Store(stateClosed)
		})
	}
}

// sleep waits for the backoff interval, reporting false when the
// subscription is cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
