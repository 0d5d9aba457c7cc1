// ===============================
// FILE: internal/highlight/highlight_test.go
// ===============================

package highlight

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadhub/internal/models"
)

// memorySource is an in-memory Source that applies the same ordering
// rules as the SQL listing queries: recent and oldest order on
// created_at, popular on upvotes then created_at, and every ordering
// breaks remaining ties on id.
type memorySource struct {
	nodes []*models.ContentNode
}

func (s *memorySource) sorted(sortOrder models.SortOrder) []*models.ContentNode {
	out := make([]*models.ContentNode, len(s.nodes))
	copy(out, s.nodes)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch sortOrder {
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
		default: // recent
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
	})
	return out
}

func (s *memorySource) CountBefore(_ context.Context, targetID int64, sortOrder models.SortOrder) (int64, error) {
	for i, n := range s.sorted(sortOrder) {
		if n.ID == targetID {
			return int64(i), nil
		}
	}
	return 0, fmt.Errorf("node %d not found", targetID)
}

func (s *memorySource) FetchPage(_ context.Context, params models.PaginationParams) ([]*models.ContentNode, int64, error) {
	all := s.sorted(params.Sort)
	start := params.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + params.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (s *memorySource) FetchByID(_ context.Context, id int64) (*models.ContentNode, error) {
	for _, n := range s.nodes {
		if n.ID == id {
			// Copy so marker mutation does not leak across tests.
			cp := *n
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("node %d: %w", id, ErrNotFound)
}

// newCommentSet builds n comments where comment i (1-based) was
// created i minutes after the base time, so higher ids are newer.
func newCommentSet(n int) *memorySource {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	nodes := make([]*models.ContentNode, 0, n)
	for i := 1; i <= n; i++ {
		nodes = append(nodes, &models.ContentNode{
			ID:        int64(i),
			Kind:      models.NodeKindComment,
			ThreadID:  1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return &memorySource{nodes: nodes}
}

func TestLocate_FifteenthNewestOfTwentyFive(t *testing.T) {
	src := newCommentSet(25)
	locator := NewLocator[*models.ContentNode](src)

	// Newest-first, the 15th newest comment has id 11 (25 minus 14).
	info, err := locator.Locate(context.Background(), 11, 10, models.SortRecent)
	require.NoError(t, err)

	assert.Equal(t, 2, info.NaturalPage)
	assert.Equal(t, 5, info.PositionInPage)
}

func TestLocate_FirstAndLastItem(t *testing.T) {
	src := newCommentSet(25)
	locator := NewLocator[*models.ContentNode](src)

	newest, err := locator.Locate(context.Background(), 25, 10, models.SortRecent)
	require.NoError(t, err)
	assert.Equal(t, 1, newest.NaturalPage)
	assert.Equal(t, 1, newest.PositionInPage)

	oldest, err := locator.Locate(context.Background(), 1, 10, models.SortRecent)
	require.NoError(t, err)
	assert.Equal(t, 3, oldest.NaturalPage)
	assert.Equal(t, 5, oldest.PositionInPage)
}

func TestLocate_PageBoundary(t *testing.T) {
	src := newCommentSet(25)
	locator := NewLocator[*models.ContentNode](src)

	// Exactly perPage rows sort before: first item of page 2.
	info, err := locator.Locate(context.Background(), 15, 10, models.SortRecent)
	require.NoError(t, err)
	assert.Equal(t, 2, info.NaturalPage)
	assert.Equal(t, 1, info.PositionInPage)
}

func TestLocate_OldestMirrorsRecent(t *testing.T) {
	src := newCommentSet(25)
	locator := NewLocator[*models.ContentNode](src)

	info, err := locator.Locate(context.Background(), 1, 10, models.SortOldest)
	require.NoError(t, err)
	assert.Equal(t, 1, info.NaturalPage)
	assert.Equal(t, 1, info.PositionInPage)
}

func TestLocate_PopularWithTies(t *testing.T) {
	src := newCommentSet(5)
	src.nodes[0].Upvotes = 3 // id 1
	src.nodes[1].Upvotes = 3 // id 2
	src.nodes[2].Upvotes = 7 // id 3
	locator := NewLocator[*models.ContentNode](src)

	// Order: 3 (7 votes), then 2 and 1 (3 votes, newer first), then 5, 4.
	info, err := locator.Locate(context.Background(), 1, 10, models.SortPopular)
	require.NoError(t, err)
	assert.Equal(t, 3, info.PositionInPage)
}

func TestLocate_RejectsBadPerPage(t *testing.T) {
	locator := NewLocator[*models.ContentNode](newCommentSet(3))
	_, err := locator.Locate(context.Background(), 1, 0, models.SortRecent)
	assert.Error(t, err)
}

func TestPage_HighlightOnRequestedPageServedInPlace(t *testing.T) {
	src := newCommentSet(25)
	paginator := NewPaginator[*models.ContentNode](src)

	params := models.PaginationParams{Page: 1, PerPage: 10, Sort: models.SortRecent}
	highlightID := int64(20) // 6th newest, already on page 1
	page, err := paginator.Page(context.Background(), params, &highlightID)
	require.NoError(t, err)

	assert.Len(t, page.Data, 10)
	assert.EqualValues(t, 25, page.Pagination.TotalItems)
	for _, n := range page.Data {
		assert.False(t, n.IncludedFromOtherPage)
	}

	require.NotNil(t, page.Highlight)
	assert.EqualValues(t, 20, page.Highlight.TargetID)
	assert.True(t, page.Highlight.FoundInCurrentPage)
	assert.False(t, page.Highlight.IncludedFromOtherPage)
	assert.Equal(t, 1, page.Highlight.NaturalPage)
	assert.Equal(t, 6, page.Highlight.PositionInPage)
}

func TestPage_HighlightFromOtherPagePrepended(t *testing.T) {
	src := newCommentSet(25)
	paginator := NewPaginator[*models.ContentNode](src)

	params := models.PaginationParams{Page: 1, PerPage: 10, Sort: models.SortRecent}
	highlightID := int64(3) // deep on page 3
	page, err := paginator.Page(context.Background(), params, &highlightID)
	require.NoError(t, err)

	require.Len(t, page.Data, 11)
	assert.EqualValues(t, 3, page.Data[0].ID)
	assert.True(t, page.Data[0].IncludedFromOtherPage)
	assert.EqualValues(t, 26, page.Pagination.TotalItems)

	// The rest of the page is the untouched natural page 1.
	assert.EqualValues(t, 25, page.Data[1].ID)
	assert.False(t, page.Data[1].IncludedFromOtherPage)

	// The info reports where the item naturally lives.
	require.NotNil(t, page.Highlight)
	assert.EqualValues(t, 3, page.Highlight.TargetID)
	assert.False(t, page.Highlight.FoundInCurrentPage)
	assert.True(t, page.Highlight.IncludedFromOtherPage)
	assert.Equal(t, 3, page.Highlight.NaturalPage)
	assert.Equal(t, 3, page.Highlight.PositionInPage)
}

func TestPage_HighlightInfoCarriesNaturalPosition(t *testing.T) {
	src := newCommentSet(25)
	paginator := NewPaginator[*models.ContentNode](src)

	// The 15th newest item lands on page 2, position 5; one listing
	// call serves the prepended item and says so.
	params := models.PaginationParams{Page: 1, PerPage: 10, Sort: models.SortRecent}
	highlightID := int64(11)
	page, err := paginator.Page(context.Background(), params, &highlightID)
	require.NoError(t, err)

	require.Len(t, page.Data, 11)
	assert.EqualValues(t, 11, page.Data[0].ID)
	require.NotNil(t, page.Highlight)
	assert.Equal(t, 2, page.Highlight.NaturalPage)
	assert.Equal(t, 5, page.Highlight.PositionInPage)
}

func TestPage_HighlightInfoInEnvelope(t *testing.T) {
	src := newCommentSet(25)
	paginator := NewPaginator[*models.ContentNode](src)

	params := models.PaginationParams{Page: 1, PerPage: 10, Sort: models.SortRecent}
	highlightID := int64(3)
	page, err := paginator.Page(context.Background(), params, &highlightID)
	require.NoError(t, err)

	raw, err := json.Marshal(page)
	require.NoError(t, err)

	body := string(raw)
	assert.Contains(t, body, `"highlight_info"`)
	assert.Contains(t, body, `"target_id":3`)
	assert.Contains(t, body, `"found_in_current_page":false`)
	assert.Contains(t, body, `"natural_page":3`)
	assert.Contains(t, body, `"position_in_page":3`)
	assert.Contains(t, body, `"included_from_other_page":true`)
}

func TestPage_NoHighlightIsPlainPagination(t *testing.T) {
	src := newCommentSet(25)
	paginator := NewPaginator[*models.ContentNode](src)

	params := models.PaginationParams{Page: 3, PerPage: 10, Sort: models.SortRecent}
	page, err := paginator.Page(context.Background(), params, nil)
	require.NoError(t, err)

	assert.Len(t, page.Data, 5)
	assert.EqualValues(t, 25, page.Pagination.TotalItems)
	assert.False(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)
	assert.Nil(t, page.Highlight)
}

func TestPage_MissingHighlightDroppedSilently(t *testing.T) {
	src := newCommentSet(5)
	paginator := NewPaginator[*models.ContentNode](src)

	params := models.PaginationParams{Page: 1, PerPage: 10, Sort: models.SortRecent}
	highlightID := int64(99)
	page, err := paginator.Page(context.Background(), params, &highlightID)
	require.NoError(t, err)
	assert.Len(t, page.Data, 5)
	assert.EqualValues(t, 5, page.Pagination.TotalItems)
	for _, n := range page.Data {
		assert.False(t, n.IncludedFromOtherPage)
	}

	require.NotNil(t, page.Highlight)
	assert.EqualValues(t, 99, page.Highlight.TargetID)
	assert.False(t, page.Highlight.FoundInCurrentPage)
	assert.Zero(t, page.Highlight.NaturalPage)
}

func TestPage_LocateAgreesWithPagination(t *testing.T) {
	src := newCommentSet(25)
	locator := NewLocator[*models.ContentNode](src)
	paginator := NewPaginator[*models.ContentNode](src)

	for id := int64(1); id <= 25; id++ {
		info, err := locator.Locate(context.Background(), id, 10, models.SortRecent)
		require.NoError(t, err)

		params := models.PaginationParams{Page: info.NaturalPage, PerPage: 10, Sort: models.SortRecent}
		page, err := paginator.Page(context.Background(), params, nil)
		require.NoError(t, err)

		require.GreaterOrEqual(t, len(page.Data), info.PositionInPage)
		assert.Equal(t, id, page.Data[info.PositionInPage-1].ID,
			"id %d should sit at page %d position %d", id, info.NaturalPage, info.PositionInPage)
	}
}
