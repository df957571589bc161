package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketChat/entity"
	"MarketChat/internal/lib/api/cont"
	"MarketChat/internal/service/chat"
)

type fakeCore struct {
	resolveID   string
	resolveErr  error
	conv        *entity.Conversation
	convErr     error
	list        []entity.Conversation
	markReadErr error
	deleted     map[string]string // conversation id -> actor
}

func (f *fakeCore) Resolve(_ context.Context, _ chat.ResolveInput) (string, error) {
	return f.resolveID, f.resolveErr
}

func (f *fakeCore) GetConversation(_ context.Context, _ string) (*entity.Conversation, error) {
	return f.conv, f.convErr
}

func (f *fakeCore) ListConversations(_ context.Context, _ string) ([]entity.Conversation, error) {
	return f.list, nil
}

func (f *fakeCore) MarkRead(_ context.Context, _, _ string) error {
	return f.markReadErr
}

func (f *fakeCore) DeleteConversation(_ context.Context, conversationID, actorID string) error {
	if f.deleted == nil {
		f.deleted = map[string]string{}
	}
	f.deleted[conversationID] = actorID
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func asUser(r *http.Request, username string) *http.Request {
	ctx := cont.PutUser(r.Context(), &entity.UserAuth{Username: username, Token: "t"})
	return r.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestResolveHandler(t *testing.T) {
	core := &fakeCore{resolveID: "conv-1"}
	body, _ := json.Marshal(ResolveRequest{Participants: []string{"alice", "bob"}})

	r := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", bytes.NewReader(body))
	r = asUser(r, "alice")
	w := httptest.NewRecorder()

	Resolve(discardLogger(), core)(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ResolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "conv-1", resp.ConversationID)
}

func TestResolveHandlerRejectsForeignInitiator(t *testing.T) {
	core := &fakeCore{resolveID: "conv-1"}
	body, _ := json.Marshal(ResolveRequest{Participants: []string{"alice", "bob"}})

	r := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", bytes.NewReader(body))
	r = asUser(r, "mallory")
	w := httptest.NewRecorder()

	Resolve(discardLogger(), core)(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestResolveHandlerValidation(t *testing.T) {
	core := &fakeCore{}
	body, _ := json.Marshal(ResolveRequest{Participants: []string{"alice"}})

	r := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", bytes.NewReader(body))
	r = asUser(r, "alice")
	w := httptest.NewRecorder()

	Resolve(discardLogger(), core)(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		convErr    error
		wantStatus int
	}{
		{"not found", entity.NotFound("no such conversation"), http.StatusNotFound},
		{"unavailable", entity.Unavailable(context.DeadlineExceeded), http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			core := &fakeCore{convErr: tc.convErr}

			r := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/c1", nil)
			r = withURLParam(asUser(r, "alice"), "conversation_id", "c1")
			w := httptest.NewRecorder()

			Get(discardLogger(), core)(w, r)

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestGetHandlerHidesForeignConversation(t *testing.T) {
	core := &fakeCore{conv: &entity.Conversation{
		ID:           "c1",
		Participants: []string{"bob", "carol"},
		UpdatedAt:    time.Now(),
	}}

	r := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/c1", nil)
	r = withURLParam(asUser(r, "alice"), "conversation_id", "c1")
	w := httptest.NewRecorder()

	Get(discardLogger(), core)(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteHandlerUsesCaller(t *testing.T) {
	core := &fakeCore{}

	r := httptest.NewRequest(http.MethodDelete, "/api/v1/conversations/c1", nil)
	r = withURLParam(asUser(r, "alice"), "conversation_id", "c1")
	w := httptest.NewRecorder()

	Delete(discardLogger(), core)(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", core.deleted["c1"])
}
