// ===============================
// FILE: internal/services/notification_service_test.go
// ===============================

package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"threadhub/internal/events"
	"threadhub/internal/models"
	"threadhub/internal/repositories"
)

// recordingBus captures subscriptions so tests can drive handlers
// directly.
type recordingBus struct {
	nopBus
	handlers map[string][]events.EventHandler
}

func newRecordingBus() *recordingBus {
	return &recordingBus{handlers: make(map[string][]events.EventHandler)}
}

func (b *recordingBus) Subscribe(eventType string, handler events.EventHandler) {
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *recordingBus) dispatch(t *testing.T, event events.Event) {
	t.Helper()
	handlers := b.handlers[event.GetEventType()]
	require.NotEmpty(t, handlers, "no handler subscribed for %s", event.GetEventType())
	for _, h := range handlers {
		require.NoError(t, h.Handle(context.Background(), event))
	}
}

type fakeNotificationRepo struct {
	created []*models.Notification
	read    map[int64]bool
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{read: make(map[int64]bool)}
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	n.ID = int64(len(f.created) + 1)
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, userID int64, _ models.PaginationParams) ([]*models.Notification, int64, error) {
	var out []*models.Notification
	for _, n := range f.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id, userID int64) error {
	for _, n := range f.created {
		if n.ID == id && n.UserID == userID && !f.read[id] {
			f.read[id] = true
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, userID int64) error {
	for _, n := range f.created {
		if n.UserID == userID {
			f.read[n.ID] = true
		}
	}
	return nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, userID int64) (int64, error) {
	var count int64
	for _, n := range f.created {
		if n.UserID == userID && !f.read[n.ID] {
			count++
		}
	}
	return count, nil
}

type recordingRealtime struct {
	pushes []int64
}

func (r *recordingRealtime) PushToUser(userID int64, _ interface{}) {
	r.pushes = append(r.pushes, userID)
}

func newTestNotificationService(t *testing.T) (NotificationService, *recordingBus, *fakeNotificationRepo, *recordingRealtime) {
	t.Helper()
	bus := newRecordingBus()
	repo := newFakeNotificationRepo()
	realtime := &recordingRealtime{}
	repos := &repositories.Collection{Notifications: repo}
	svc := NewNotificationService(repos, bus, realtime, zap.NewNop())
	return svc, bus, repo, realtime
}

func TestNotification_CommentOnThread(t *testing.T) {
	_, bus, repo, realtime := newTestNotificationService(t)

	bus.dispatch(t, events.NewCommentCreatedEvent(5, 1, 10, 100))

	require.Len(t, repo.created, 1)
	n := repo.created[0]
	assert.Equal(t, int64(100), n.UserID)
	assert.Equal(t, int64(10), n.ActorID)
	assert.Equal(t, "comment", n.Type)
	assert.Equal(t, []int64{100}, realtime.pushes)
}

func TestNotification_SkipsSelf(t *testing.T) {
	_, bus, repo, realtime := newTestNotificationService(t)

	// Commenting on your own thread stays silent.
	bus.dispatch(t, events.NewCommentCreatedEvent(5, 1, 100, 100))
	// So does replying to yourself.
	bus.dispatch(t, events.NewReplyCreatedEvent(6, 5, 1, 10, 10))

	assert.Empty(t, repo.created)
	assert.Empty(t, realtime.pushes)
}

func TestNotification_ReplyNotifiesTargetAuthor(t *testing.T) {
	_, bus, repo, _ := newTestNotificationService(t)

	bus.dispatch(t, events.NewReplyCreatedEvent(6, 5, 1, 10, 20))

	require.Len(t, repo.created, 1)
	assert.Equal(t, int64(20), repo.created[0].UserID)
	assert.Equal(t, "reply", repo.created[0].Type)
}

func TestNotification_OnlyNewUpvotesNotify(t *testing.T) {
	_, bus, repo, _ := newTestNotificationService(t)

	bus.dispatch(t, events.NewVoteCastEvent(10, 5, "comment", "up", "created", 20))
	// Downvotes, removals, and flips stay silent.
	bus.dispatch(t, events.NewVoteCastEvent(10, 5, "comment", "down", "created", 20))
	bus.dispatch(t, events.NewVoteCastEvent(10, 5, "comment", "up", "removed", 20))
	bus.dispatch(t, events.NewVoteCastEvent(10, 5, "comment", "up", "updated", 20))

	require.Len(t, repo.created, 1)
	assert.Equal(t, "upvote", repo.created[0].Type)
	assert.Equal(t, int64(20), repo.created[0].UserID)
}

func TestNotification_MarkReadFlow(t *testing.T) {
	svc, bus, _, _ := newTestNotificationService(t)
	ctx := context.Background()

	bus.dispatch(t, events.NewCommentCreatedEvent(5, 1, 10, 100))
	bus.dispatch(t, events.NewReplyCreatedEvent(6, 5, 1, 11, 100))

	count, err := svc.CountUnread(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, svc.MarkRead(ctx, 1, 100))
	count, err = svc.CountUnread(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Re-reading or reading someone else's notification is not found.
	err = svc.MarkRead(ctx, 1, 100)
	assert.True(t, IsNotFoundError(err))
	err = svc.MarkRead(ctx, 2, 999)
	assert.True(t, IsNotFoundError(err))

	require.NoError(t, svc.MarkAllRead(ctx, 100))
	count, err = svc.CountUnread(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
