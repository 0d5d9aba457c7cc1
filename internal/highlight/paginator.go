// ===============================
// FILE: internal/highlight/paginator.go
// ===============================

package highlight

import (
	"context"
	"errors"
	"fmt"

	"threadhub/internal/models"
)

// Paginator serves pages that are guaranteed to contain a requested
// highlight. When the highlight naturally sorts onto the requested
// page it is served in place; otherwise it is fetched separately,
// marked, and prepended so the client always has it to scroll to.
// Either way the response carries a HighlightInfo describing where
// the target really lives.
type Paginator[T Entry] struct {
	src Source[T]
	loc *Locator[T]
}

// NewPaginator builds a paginator over a listing source.
func NewPaginator[T Entry](src Source[T]) *Paginator[T] {
	return &Paginator[T]{src: src, loc: NewLocator[T](src)}
}

// Page returns one page of the listing. highlightID may be nil for
// plain pagination. Every highlighted request yields a HighlightInfo
// with the target id and whether it sorted onto the served page. A
// target from another page is additionally located, prepended with
// its marker set, and counted in the total, so the page carries
// perPage+1 items in that case. A highlight the source reports as
// ErrNotFound yields a plain page with found_in_current_page false.
func (p *Paginator[T]) Page(ctx context.Context, params models.PaginationParams, highlightID *int64) (*models.PaginatedResponse[T], error) {
	if params.Page < 1 || params.PerPage < 1 {
		return nil, fmt.Errorf("invalid pagination: page=%d per_page=%d", params.Page, params.PerPage)
	}

	items, total, err := p.src.FetchPage(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", params.Page, err)
	}

	var info *models.HighlightInfo
	if highlightID != nil {
		info = &models.HighlightInfo{TargetID: *highlightID}

		if pos := indexOfID(items, *highlightID); pos >= 0 {
			info.FoundInCurrentPage = true
			info.NaturalPage = params.Page
			info.PositionInPage = pos + 1
		} else {
			target, err := p.src.FetchByID(ctx, *highlightID)
			switch {
			case errors.Is(err, ErrNotFound):
				// A highlight that no longer exists or fails the
				// listing's filters is dropped, not an error.
			case err != nil:
				return nil, fmt.Errorf("fetch highlighted item %d: %w", *highlightID, err)
			default:
				located, err := p.loc.Locate(ctx, *highlightID, params.PerPage, params.Sort)
				if err != nil {
					return nil, err
				}
				info.NaturalPage = located.NaturalPage
				info.PositionInPage = located.PositionInPage
				info.IncludedFromOtherPage = true

				target.MarkIncludedFromOtherPage()
				items = append([]T{target}, items...)
				total++
			}
		}
	}

	return &models.PaginatedResponse[T]{
		Data:       items,
		Pagination: models.NewPaginationMeta(params, total),
		Highlight:  info,
	}, nil
}

func indexOfID[T Entry](items []T, id int64) int {
	for i, it := range items {
		if it.EntryID() == id {
			return i
		}
	}
	return -1
}
