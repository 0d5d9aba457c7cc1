// ===============================
// FILE: internal/highlight/locator.go
// ===============================

// Package highlight computes where a single item lands inside a
// sorted, paginated listing and builds pages that always include a
// requested item, even when it naturally sorts onto another page.
//
// The package is storage-agnostic: callers supply a Source that can
// count rows sorting strictly before a target and fetch pages under
// the same ordering. The count and the page use the same tiebreak
// rules, so a located position always agrees with what pagination
// would serve.
package highlight

import (
	"context"
	"errors"
	"fmt"

	"threadhub/internal/models"
)

// ErrNotFound reports that a target does not exist in the listing the
// source serves, either because it is gone or because it fails the
// listing's filters. Sources wrap it so the paginator can drop an
// ineligible highlight instead of failing the whole page.
var ErrNotFound = errors.New("target not in listing")

// Entry is the minimal surface the paginator needs from a listed item.
// Both *models.ContentNode and *models.Review satisfy it.
type Entry interface {
	EntryID() int64
	MarkIncludedFromOtherPage()
}

// Source provides ordered access to one listing (comments of a thread,
// reviews of a thread). Implementations must apply identical ordering
// in CountBefore and FetchPage, including the id tiebreak.
type Source[T Entry] interface {
	// CountBefore returns how many rows sort strictly before the
	// target under the given ordering. Implementations should answer
	// with a single query.
	CountBefore(ctx context.Context, targetID int64, sort models.SortOrder) (int64, error)

	// FetchPage returns one page of rows plus the listing's total row
	// count.
	FetchPage(ctx context.Context, params models.PaginationParams) ([]T, int64, error)

	// FetchByID returns a single row regardless of which page it
	// sorts onto.
	FetchByID(ctx context.Context, id int64) (T, error)
}

// Locator resolves an item's natural page and position within it.
type Locator[T Entry] struct {
	src Source[T]
}

// NewLocator builds a locator over a listing source.
func NewLocator[T Entry](src Source[T]) *Locator[T] {
	return &Locator[T]{src: src}
}

// Locate returns where targetID sits in the listing under the given
// ordering and page size. With n rows sorting strictly before the
// target, the item is the (n+1)th row overall.
func (l *Locator[T]) Locate(ctx context.Context, targetID int64, perPage int, sort models.SortOrder) (*models.HighlightInfo, error) {
	if perPage < 1 {
		return nil, fmt.Errorf("per_page must be positive, got %d", perPage)
	}

	before, err := l.src.CountBefore(ctx, targetID, sort)
	if err != nil {
		return nil, fmt.Errorf("count rows before target %d: %w", targetID, err)
	}

	return &models.HighlightInfo{
		TargetID:       targetID,
		NaturalPage:    int(before)/perPage + 1,
		PositionInPage: int(before)%perPage + 1,
	}, nil
}
