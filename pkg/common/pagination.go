package common

import (
	"net/http"
	"strconv"
)

// PaginationParams carries cursor pagination parameters. ExclusiveStartKey is
// the opaque cursor returned by the previous page.
type PaginationParams struct {
	Limit             int    `json:"limit"`
	ExclusiveStartKey string `json:"exclusiveStartKey,omitempty"`
}

// DefaultPaginationParams returns default pagination parameters
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{Limit: 25}
}

// ExtractPaginationParams extracts pagination parameters from request
func ExtractPaginationParams(r *http.Request) PaginationParams {
	params := DefaultPaginationParams()

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			if n > 100 {
				n = 100 // Max page size
			}
			params.Limit = n
		}
	}

	if key := r.URL.Query().Get("exclusiveStartKey"); key != "" {
		params.ExclusiveStartKey = key
	}

	return params
}
