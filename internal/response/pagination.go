// ===============================
// FILE: internal/response/pagination.go
// ===============================

package response

import (
	"fmt"
	"net/http"
	"strconv"

	"threadhub/internal/models"
	"threadhub/internal/services"
)

// PaginationConfig bounds listing parameters.
type PaginationConfig struct {
	DefaultPerPage int `json:"default_per_page"`
	MaxPerPage     int `json:"max_per_page"`
}

// DefaultPaginationConfig returns standard listing bounds.
func DefaultPaginationConfig() *PaginationConfig {
	return &PaginationConfig{
		DefaultPerPage: 20,
		MaxPerPage:     100,
	}
}

// ListingParams is everything a listing endpoint takes from the query
// string.
type ListingParams struct {
	Pagination  models.PaginationParams
	HighlightID *int64
	AuthorID    *int64
}

// PaginationParser reads listing parameters from requests.
type PaginationParser struct {
	config *PaginationConfig
}

// NewPaginationParser creates a parser.
func NewPaginationParser(config *PaginationConfig) *PaginationParser {
	if config == nil {
		config = DefaultPaginationConfig()
	}
	return &PaginationParser{config: config}
}

// ParseFromRequest reads page, per_page, sort, highlight, and author
// from the query string, applying defaults and bounds.
func (p *PaginationParser) ParseFromRequest(r *http.Request) (*ListingParams, error) {
	query := r.URL.Query()

	params := &ListingParams{
		Pagination: models.PaginationParams{
			Page:    1,
			PerPage: p.config.DefaultPerPage,
			Sort:    models.SortRecent,
		},
	}

	if pageStr := query.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return nil, fieldValidationError("page", "must be a positive integer")
		}
		params.Pagination.Page = page
	}

	if sizeStr := query.Get("per_page"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 1 {
			return nil, fieldValidationError("per_page", "must be a positive integer")
		}
		if size > p.config.MaxPerPage {
			return nil, fieldValidationError("per_page", fmt.Sprintf("cannot exceed %d", p.config.MaxPerPage))
		}
		params.Pagination.PerPage = size
	}

	sort, err := models.ParseSortOrder(query.Get("sort"))
	if err != nil {
		return nil, fieldValidationError("sort", err.Error())
	}
	params.Pagination.Sort = sort

	if highlightStr := query.Get("highlight"); highlightStr != "" {
		highlightID, err := strconv.ParseInt(highlightStr, 10, 64)
		if err != nil || highlightID < 1 {
			return nil, fieldValidationError("highlight", "must be a positive integer")
		}
		params.HighlightID = &highlightID
	}

	if authorStr := query.Get("author"); authorStr != "" {
		authorID, err := strconv.ParseInt(authorStr, 10, 64)
		if err != nil || authorID < 1 {
			return nil, fieldValidationError("author", "must be a positive integer")
		}
		params.AuthorID = &authorID
	}

	return params, nil
}

// fieldValidationError reports one bad query parameter.
func fieldValidationError(field, message string) error {
	return services.NewFieldValidationError("invalid listing parameters", []services.FieldError{
		{Field: field, Message: message},
	})
}
