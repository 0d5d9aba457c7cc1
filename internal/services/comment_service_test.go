// ===============================
// FILE: internal/services/comment_service_test.go
// ===============================

package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"threadhub/internal/events"
	"threadhub/internal/models"
	"threadhub/internal/repositories"
)

// ===============================
// FAKES
// ===============================

type fakeThreadRepo struct {
	threads map[int64]*models.Thread
}

func (f *fakeThreadRepo) Create(_ context.Context, t *models.Thread) error {
	t.ID = int64(len(f.threads) + 1)
	f.threads[t.ID] = t
	return nil
}

func (f *fakeThreadRepo) GetByID(_ context.Context, id int64, _ *int64) (*models.Thread, error) {
	t, ok := f.threads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (f *fakeThreadRepo) Update(_ context.Context, t *models.Thread) error { return nil }
func (f *fakeThreadRepo) Delete(_ context.Context, id int64) error {
	delete(f.threads, id)
	return nil
}
func (f *fakeThreadRepo) SetLocked(_ context.Context, id int64, locked bool) error {
	if t, ok := f.threads[id]; ok {
		t.IsLocked = locked
	}
	return nil
}
func (f *fakeThreadRepo) List(_ context.Context, _ models.PaginationParams, _ *string, _ *int64) ([]*models.Thread, int64, error) {
	return nil, 0, nil
}

type fakeContentRepo struct {
	nodes  map[int64]*models.ContentNode
	nextID int64
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{nodes: make(map[int64]*models.ContentNode), nextID: 1}
}

func (f *fakeContentRepo) Create(_ context.Context, n *models.ContentNode) error {
	n.ID = f.nextID
	f.nextID++
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Unix(1700000000+n.ID*60, 0)
	}
	clone := *n
	f.nodes[n.ID] = &clone
	return nil
}

func (f *fakeContentRepo) GetByID(_ context.Context, id int64, _ *int64) (*models.ContentNode, error) {
	n, ok := f.nodes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *n
	return &clone, nil
}

func (f *fakeContentRepo) Update(_ context.Context, n *models.ContentNode) error {
	clone := *n
	f.nodes[n.ID] = &clone
	return nil
}

func (f *fakeContentRepo) Delete(_ context.Context, id int64) error {
	delete(f.nodes, id)
	return nil
}

func (f *fakeContentRepo) topLevel(threadID int64, authorID *int64, order models.SortOrder) []*models.ContentNode {
	var out []*models.ContentNode
	for _, n := range f.nodes {
		if n.ThreadID == threadID && n.IsTopLevel() {
			if authorID != nil && n.UserID != *authorID {
				continue
			}
			clone := *n
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch order {
		case models.SortOldest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		case models.SortPopular:
			if a.Upvotes != b.Upvotes {
				return a.Upvotes > b.Upvotes
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
	})
	return out
}

func (f *fakeContentRepo) ListTopLevel(_ context.Context, threadID int64, authorID *int64, params models.PaginationParams, _ *int64) ([]*models.ContentNode, int64, error) {
	all := f.topLevel(threadID, authorID, params.Sort)
	total := int64(len(all))
	start := params.Offset()
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + params.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeContentRepo) CountBefore(_ context.Context, threadID, targetID int64, authorID *int64, order models.SortOrder) (int64, error) {
	for i, n := range f.topLevel(threadID, authorID, order) {
		if n.ID == targetID {
			return int64(i), nil
		}
	}
	return 0, sql.ErrNoRows
}

func (f *fakeContentRepo) ListRepliesByParents(_ context.Context, parentIDs []int64, _ *int64) (map[int64][]*models.ContentNode, error) {
	wanted := make(map[int64]bool, len(parentIDs))
	for _, id := range parentIDs {
		wanted[id] = true
	}
	out := make(map[int64][]*models.ContentNode)
	for _, n := range f.nodes {
		if n.ParentID != nil && wanted[*n.ParentID] {
			clone := *n
			out[*n.ParentID] = append(out[*n.ParentID], &clone)
		}
	}
	for _, replies := range out {
		sort.Slice(replies, func(i, j int) bool {
			if !replies[i].CreatedAt.Equal(replies[j].CreatedAt) {
				return replies[i].CreatedAt.Before(replies[j].CreatedAt)
			}
			return replies[i].ID < replies[j].ID
		})
	}
	return out, nil
}

func (f *fakeContentRepo) CountByThread(_ context.Context, threadID int64) (int64, error) {
	var count int64
	for _, n := range f.nodes {
		if n.ThreadID == threadID {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct{}

func (fakeUserRepo) GetByID(_ context.Context, id int64) (*repositories.User, error) {
	return &repositories.User{ID: id}, nil
}
func (fakeUserRepo) GetByUsername(_ context.Context, username string) (*repositories.User, error) {
	return &repositories.User{Username: username}, nil
}
func (fakeUserRepo) EnsureExists(_ context.Context, id int64, username string) (*repositories.User, error) {
	return &repositories.User{ID: id, Username: username}, nil
}

type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event) error      { return nil }
func (nopBus) PublishAsync(context.Context, events.Event)       {}
func (nopBus) Subscribe(string, events.EventHandler)            {}
func (nopBus) SubscribePattern(string, events.EventHandler)     {}
func (nopBus) Start() error                                     { return nil }
func (nopBus) Stop(context.Context) error                       { return nil }
func (nopBus) Stats() events.BusStats                           { return events.BusStats{} }

func newTestCommentService(t *testing.T) (CommentService, *fakeContentRepo, *fakeThreadRepo) {
	t.Helper()
	content := newFakeContentRepo()
	threads := &fakeThreadRepo{threads: map[int64]*models.Thread{
		1: {ID: 1, UserID: 100, Title: "first thread"},
	}}
	repos := &repositories.Collection{
		Threads: threads,
		Content: content,
		Users:   fakeUserRepo{},
	}
	return NewCommentService(repos, nopBus{}, zap.NewNop()), content, threads
}

func seedComment(t *testing.T, svc CommentService, body string) *models.ContentNode {
	t.Helper()
	node, err := svc.CreateComment(context.Background(), &CreateCommentRequest{
		ThreadID: 1, UserID: 10, Username: "alice", Body: body,
	})
	require.NoError(t, err)
	return node
}

// ===============================
// CREATION
// ===============================

func TestCreateComment(t *testing.T) {
	svc, _, _ := newTestCommentService(t)

	node := seedComment(t, svc, "hello")
	assert.Equal(t, models.NodeKindComment, node.Kind)
	assert.True(t, node.IsTopLevel())
	assert.Nil(t, node.ParentID)
	assert.Nil(t, node.ReplyToID)
}

func TestCreateComment_LockedThread(t *testing.T) {
	svc, _, threads := newTestCommentService(t)
	threads.threads[1].IsLocked = true

	_, err := svc.CreateComment(context.Background(), &CreateCommentRequest{
		ThreadID: 1, UserID: 10, Username: "alice", Body: "hello",
	})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrTypeBusiness))
}

func TestCreateReply_TargetsTopLevelComment(t *testing.T) {
	svc, _, _ := newTestCommentService(t)
	parent := seedComment(t, svc, "parent")

	reply, err := svc.CreateReply(context.Background(), &CreateReplyRequest{
		TargetID: parent.ID, UserID: 11, Username: "bob", Body: "a reply",
	})
	require.NoError(t, err)

	assert.Equal(t, models.NodeKindReply, reply.Kind)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)
	assert.Nil(t, reply.ReplyToID)
}

func TestCreateReply_RejectsReplyTarget(t *testing.T) {
	svc, _, _ := newTestCommentService(t)
	parent := seedComment(t, svc, "parent")

	reply, err := svc.CreateReply(context.Background(), &CreateReplyRequest{
		TargetID: parent.ID, UserID: 11, Username: "bob", Body: "a reply",
	})
	require.NoError(t, err)

	_, err = svc.CreateReply(context.Background(), &CreateReplyRequest{
		TargetID: reply.ID, UserID: 12, Username: "carol", Body: "reply to a reply",
	})
	require.Error(t, err)
	assert.True(t, IsInvalidTargetError(err))

	svcErr, ok := GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, 422, svcErr.GetStatusCode())
}

func TestCreateNestedReply_FlattensUnderTopLevelParent(t *testing.T) {
	svc, _, _ := newTestCommentService(t)
	parent := seedComment(t, svc, "parent")

	first, err := svc.CreateReply(context.Background(), &CreateReplyRequest{
		TargetID: parent.ID, UserID: 11, Username: "bob", Body: "first reply",
	})
	require.NoError(t, err)

	nested, err := svc.CreateNestedReply(context.Background(), &CreateReplyRequest{
		TargetID: first.ID, UserID: 12, Username: "carol", Body: "nested",
	})
	require.NoError(t, err)

	// The nested reply hangs under the top-level reply and records
	// which node it addressed.
	require.NotNil(t, nested.ParentID)
	assert.Equal(t, first.ID, *nested.ParentID)
	require.NotNil(t, nested.ReplyToID)
	assert.Equal(t, first.ID, *nested.ReplyToID)

	// Replying deeper still flattens onto the original top-level
	// reply, never the immediate target.
	deeper, err := svc.CreateNestedReply(context.Background(), &CreateReplyRequest{
		TargetID: nested.ID, UserID: 13, Username: "dave", Body: "deeper",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, *deeper.ParentID)
	assert.Equal(t, nested.ID, *deeper.ReplyToID)
}

func TestCreateNestedReply_RejectsTopLevelTarget(t *testing.T) {
	svc, _, _ := newTestCommentService(t)
	parent := seedComment(t, svc, "parent")

	_, err := svc.CreateNestedReply(context.Background(), &CreateReplyRequest{
		TargetID: parent.ID, UserID: 11, Username: "bob", Body: "nope",
	})
	require.Error(t, err)
	assert.True(t, IsInvalidTargetError(err))
}

func TestCreateReply_MissingTarget(t *testing.T) {
	svc, _, _ := newTestCommentService(t)

	_, err := svc.CreateReply(context.Background(), &CreateReplyRequest{
		TargetID: 999, UserID: 11, Username: "bob", Body: "a reply",
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

// ===============================
// OWNERSHIP
// ===============================

func TestUpdateNode_OnlyOwner(t *testing.T) {
	svc, _, _ := newTestCommentService(t)
	node := seedComment(t, svc, "original")

	_, err := svc.UpdateNode(context.Background(), &UpdateNodeRequest{
		NodeID: node.ID, UserID: 999, Body: "hijacked",
	})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrTypeForbidden))

	updated, err := svc.UpdateNode(context.Background(), &UpdateNodeRequest{
		NodeID: node.ID, UserID: 10, Body: "edited",
	})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Body)
	assert.True(t, updated.IsOwner)
}

func TestDeleteNode_OnlyOwner(t *testing.T) {
	svc, _, _ := newTestCommentService(t)
	node := seedComment(t, svc, "to delete")

	err := svc.DeleteNode(context.Background(), node.ID, 999)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrTypeForbidden))

	require.NoError(t, svc.DeleteNode(context.Background(), node.ID, 10))
	_, err = svc.GetNode(context.Background(), node.ID, nil)
	assert.True(t, IsNotFoundError(err))
}

// ===============================
// LISTING AND HIGHLIGHTING
// ===============================

func TestListComments_AttachesReplies(t *testing.T) {
	svc, _, _ := newTestCommentService(t)
	parent := seedComment(t, svc, "parent")
	other := seedComment(t, svc, "other")

	first, err := svc.CreateReply(context.Background(), &CreateReplyRequest{
		TargetID: parent.ID, UserID: 11, Username: "bob", Body: "reply one",
	})
	require.NoError(t, err)
	_, err = svc.CreateReply(context.Background(), &CreateReplyRequest{
		TargetID: parent.ID, UserID: 12, Username: "carol", Body: "reply two",
	})
	require.NoError(t, err)
	nested, err := svc.CreateNestedReply(context.Background(), &CreateReplyRequest{
		TargetID: first.ID, UserID: 13, Username: "dave", Body: "nested under one",
	})
	require.NoError(t, err)

	page, err := svc.ListComments(context.Background(), &ListCommentsRequest{
		ThreadID:   1,
		Pagination: models.PaginationParams{Page: 1, PerPage: 10, Sort: models.SortRecent},
	})
	require.NoError(t, err)

	require.Len(t, page.Data, 2)
	// Only top-level comments appear as page entries.
	for _, c := range page.Data {
		assert.True(t, c.IsTopLevel())
	}

	byID := map[int64]*models.ContentNode{}
	for _, c := range page.Data {
		byID[c.ID] = c
	}
	require.Len(t, byID[parent.ID].Replies, 2)
	assert.Equal(t, "reply one", byID[parent.ID].Replies[0].Body)
	assert.Empty(t, byID[other.ID].Replies)

	// Nested replies ride along under their top-level reply.
	firstReply := byID[parent.ID].Replies[0]
	require.Len(t, firstReply.Replies, 1)
	assert.Equal(t, nested.ID, firstReply.Replies[0].ID)
}

func TestListComments_HighlightFromLaterPage(t *testing.T) {
	svc, _, _ := newTestCommentService(t)

	var oldest *models.ContentNode
	for i := 0; i < 12; i++ {
		node := seedComment(t, svc, "comment")
		if oldest == nil {
			oldest = node
		}
	}

	// Under recent ordering the first comment sorts last and falls on
	// page two; highlighting it pulls it onto page one.
	page, err := svc.ListComments(context.Background(), &ListCommentsRequest{
		ThreadID:    1,
		Pagination:  models.PaginationParams{Page: 1, PerPage: 10, Sort: models.SortRecent},
		HighlightID: &oldest.ID,
	})
	require.NoError(t, err)

	require.Len(t, page.Data, 11)
	assert.Equal(t, oldest.ID, page.Data[0].ID)
	assert.True(t, page.Data[0].IncludedFromOtherPage)
	assert.Equal(t, int64(13), page.Pagination.TotalItems)

	require.NotNil(t, page.Highlight)
	assert.Equal(t, oldest.ID, page.Highlight.TargetID)
	assert.False(t, page.Highlight.FoundInCurrentPage)
	assert.True(t, page.Highlight.IncludedFromOtherPage)
	assert.Equal(t, 2, page.Highlight.NaturalPage)
	assert.Equal(t, 2, page.Highlight.PositionInPage)
}

func TestListComments_HighlightOnServedPage(t *testing.T) {
	svc, _, _ := newTestCommentService(t)

	target := seedComment(t, svc, "target")
	newest := seedComment(t, svc, "newest")

	page, err := svc.ListComments(context.Background(), &ListCommentsRequest{
		ThreadID:    1,
		Pagination:  models.PaginationParams{Page: 1, PerPage: 10, Sort: models.SortRecent},
		HighlightID: &target.ID,
	})
	require.NoError(t, err)

	// The target sorts onto the page naturally, so nothing is
	// prepended and the info reports its in-page position.
	require.Len(t, page.Data, 2)
	assert.Equal(t, newest.ID, page.Data[0].ID)
	assert.False(t, page.Data[1].IncludedFromOtherPage)

	require.NotNil(t, page.Highlight)
	assert.Equal(t, target.ID, page.Highlight.TargetID)
	assert.True(t, page.Highlight.FoundInCurrentPage)
	assert.False(t, page.Highlight.IncludedFromOtherPage)
	assert.Equal(t, 1, page.Highlight.NaturalPage)
	assert.Equal(t, 2, page.Highlight.PositionInPage)
}

func TestListComments_HighlightReplyStepsUpToParent(t *testing.T) {
	svc, _, _ := newTestCommentService(t)

	parent := seedComment(t, svc, "parent")
	reply, err := svc.CreateReply(context.Background(), &CreateReplyRequest{
		TargetID: parent.ID, UserID: 11, Username: "bob", Body: "the reply",
	})
	require.NoError(t, err)

	for i := 0; i < 11; i++ {
		seedComment(t, svc, "filler")
	}

	page, err := svc.ListComments(context.Background(), &ListCommentsRequest{
		ThreadID:    1,
		Pagination:  models.PaginationParams{Page: 1, PerPage: 10, Sort: models.SortRecent},
		HighlightID: &reply.ID,
	})
	require.NoError(t, err)

	// The reply's parent comment is the page entry.
	require.NotEmpty(t, page.Data)
	assert.Equal(t, parent.ID, page.Data[0].ID)
	assert.True(t, page.Data[0].IncludedFromOtherPage)
	require.Len(t, page.Data[0].Replies, 1)
	assert.Equal(t, reply.ID, page.Data[0].Replies[0].ID)

	require.NotNil(t, page.Highlight)
	assert.Equal(t, reply.ID, page.Highlight.TargetID)
	assert.True(t, page.Highlight.IncludedFromOtherPage)
	assert.True(t, page.Highlight.FoundInReplies)
	require.NotNil(t, page.Highlight.ParentID)
	assert.Equal(t, parent.ID, *page.Highlight.ParentID)
}

func TestListComments_HighlightReplyUnderServedComment(t *testing.T) {
	svc, _, _ := newTestCommentService(t)

	parent := seedComment(t, svc, "parent")
	reply, err := svc.CreateReply(context.Background(), &CreateReplyRequest{
		TargetID: parent.ID, UserID: 11, Username: "bob", Body: "the reply",
	})
	require.NoError(t, err)

	page, err := svc.ListComments(context.Background(), &ListCommentsRequest{
		ThreadID:    1,
		Pagination:  models.PaginationParams{Page: 1, PerPage: 10, Sort: models.SortRecent},
		HighlightID: &reply.ID,
	})
	require.NoError(t, err)

	// The parent already sorts onto the page: nothing is prepended
	// but the info still says where the reply lives.
	require.Len(t, page.Data, 1)
	assert.False(t, page.Data[0].IncludedFromOtherPage)

	require.NotNil(t, page.Highlight)
	assert.Equal(t, reply.ID, page.Highlight.TargetID)
	assert.True(t, page.Highlight.FoundInCurrentPage)
	assert.True(t, page.Highlight.FoundInReplies)
	require.NotNil(t, page.Highlight.ParentID)
	assert.Equal(t, parent.ID, *page.Highlight.ParentID)
}

func TestListComments_HighlightFromOtherThread(t *testing.T) {
	svc, _, threads := newTestCommentService(t)
	threads.threads[2] = &models.Thread{ID: 2, UserID: 100, Title: "second thread"}

	foreign, err := svc.CreateComment(context.Background(), &CreateCommentRequest{
		ThreadID: 2, UserID: 10, Username: "alice", Body: "elsewhere",
	})
	require.NoError(t, err)
	seedComment(t, svc, "local")

	page, err := svc.ListComments(context.Background(), &ListCommentsRequest{
		ThreadID:    1,
		Pagination:  models.PaginationParams{Page: 1, PerPage: 10, Sort: models.SortRecent},
		HighlightID: &foreign.ID,
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "local", page.Data[0].Body)
	assert.False(t, page.Data[0].IncludedFromOtherPage)

	require.NotNil(t, page.Highlight)
	assert.Equal(t, foreign.ID, page.Highlight.TargetID)
	assert.False(t, page.Highlight.FoundInCurrentPage)
	assert.False(t, page.Highlight.IncludedFromOtherPage)
	assert.Zero(t, page.Highlight.NaturalPage)
}

func TestListComments_AuthorFilter(t *testing.T) {
	svc, _, _ := newTestCommentService(t)

	mine := seedComment(t, svc, "mine")
	_, err := svc.CreateComment(context.Background(), &CreateCommentRequest{
		ThreadID: 1, UserID: 20, Username: "carol", Body: "hers",
	})
	require.NoError(t, err)

	authorID := int64(10)
	page, err := svc.ListComments(context.Background(), &ListCommentsRequest{
		ThreadID:   1,
		AuthorID:   &authorID,
		Pagination: models.PaginationParams{Page: 1, PerPage: 10, Sort: models.SortRecent},
	})
	require.NoError(t, err)

	require.Len(t, page.Data, 1)
	assert.Equal(t, mine.ID, page.Data[0].ID)
	assert.Equal(t, int64(1), page.Pagination.TotalItems)
}

func TestListComments_AuthorFilterDropsForeignHighlight(t *testing.T) {
	svc, _, _ := newTestCommentService(t)

	seedComment(t, svc, "mine")
	other, err := svc.CreateComment(context.Background(), &CreateCommentRequest{
		ThreadID: 1, UserID: 20, Username: "carol", Body: "hers",
	})
	require.NoError(t, err)

	authorID := int64(10)
	page, err := svc.ListComments(context.Background(), &ListCommentsRequest{
		ThreadID:    1,
		AuthorID:    &authorID,
		Pagination:  models.PaginationParams{Page: 1, PerPage: 10, Sort: models.SortRecent},
		HighlightID: &other.ID,
	})
	require.NoError(t, err)

	// The highlighted comment fails the author filter: the page is
	// served without it and without an error.
	require.Len(t, page.Data, 1)
	assert.Equal(t, "mine", page.Data[0].Body)
	require.NotNil(t, page.Highlight)
	assert.Equal(t, other.ID, page.Highlight.TargetID)
	assert.False(t, page.Highlight.FoundInCurrentPage)
	assert.False(t, page.Highlight.IncludedFromOtherPage)
}

func TestLocateComment(t *testing.T) {
	svc, _, _ := newTestCommentService(t)

	var nodes []*models.ContentNode
	for i := 0; i < 25; i++ {
		nodes = append(nodes, seedComment(t, svc, "comment"))
	}

	// Under recent ordering the 15th newest is nodes[10]: page 2,
	// position 5 with ten per page.
	info, err := svc.LocateComment(context.Background(), &LocateCommentRequest{
		ThreadID: 1, TargetID: nodes[10].ID, PerPage: 10, Sort: models.SortRecent,
	})
	require.NoError(t, err)

	assert.Equal(t, nodes[10].ID, info.TargetID)
	assert.Equal(t, 2, info.NaturalPage)
	assert.Equal(t, 5, info.PositionInPage)
	assert.False(t, info.FoundInReplies)
	assert.Nil(t, info.ParentID)
}

func TestLocateComment_ReplyReportsParentPosition(t *testing.T) {
	svc, _, _ := newTestCommentService(t)

	parent := seedComment(t, svc, "parent")
	reply, err := svc.CreateReply(context.Background(), &CreateReplyRequest{
		TargetID: parent.ID, UserID: 11, Username: "bob", Body: "the reply",
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		seedComment(t, svc, "filler")
	}

	info, err := svc.LocateComment(context.Background(), &LocateCommentRequest{
		ThreadID: 1, TargetID: reply.ID, PerPage: 10, Sort: models.SortRecent,
	})
	require.NoError(t, err)

	// Location refers to the parent comment's slot.
	assert.Equal(t, reply.ID, info.TargetID)
	assert.True(t, info.FoundInReplies)
	require.NotNil(t, info.ParentID)
	assert.Equal(t, parent.ID, *info.ParentID)
	assert.Equal(t, 2, info.NaturalPage)
	assert.Equal(t, 1, info.PositionInPage)
}

func TestLocateComment_NestedReplyResolvesTopLevelComment(t *testing.T) {
	svc, _, _ := newTestCommentService(t)

	comment := seedComment(t, svc, "comment")
	reply, err := svc.CreateReply(context.Background(), &CreateReplyRequest{
		TargetID: comment.ID, UserID: 11, Username: "bob", Body: "reply",
	})
	require.NoError(t, err)
	nested, err := svc.CreateNestedReply(context.Background(), &CreateReplyRequest{
		TargetID: reply.ID, UserID: 12, Username: "carol", Body: "nested",
	})
	require.NoError(t, err)

	info, err := svc.LocateComment(context.Background(), &LocateCommentRequest{
		ThreadID: 1, TargetID: nested.ID, PerPage: 10, Sort: models.SortRecent,
	})
	require.NoError(t, err)

	assert.Equal(t, nested.ID, info.TargetID)
	assert.True(t, info.FoundInReplies)
	require.NotNil(t, info.ParentID)
	assert.Equal(t, comment.ID, *info.ParentID)
	assert.Equal(t, 1, info.NaturalPage)
	assert.Equal(t, 1, info.PositionInPage)
}

func TestLocateComment_WrongThread(t *testing.T) {
	svc, _, threads := newTestCommentService(t)
	threads.threads[2] = &models.Thread{ID: 2, UserID: 100, Title: "second thread"}

	node := seedComment(t, svc, "comment")

	_, err := svc.LocateComment(context.Background(), &LocateCommentRequest{
		ThreadID: 2, TargetID: node.ID, PerPage: 10, Sort: models.SortRecent,
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestLocateComment_AuthorFilterExcludesTarget(t *testing.T) {
	svc, _, _ := newTestCommentService(t)

	seedComment(t, svc, "mine")
	other, err := svc.CreateComment(context.Background(), &CreateCommentRequest{
		ThreadID: 1, UserID: 20, Username: "carol", Body: "hers",
	})
	require.NoError(t, err)

	authorID := int64(10)
	_, err = svc.LocateComment(context.Background(), &LocateCommentRequest{
		ThreadID: 1, AuthorID: &authorID, TargetID: other.ID,
		PerPage: 10, Sort: models.SortRecent,
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}
