package request

import (
	"net/url"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// PaginatedRequestFromQuery reads ?page=&per_page=. Missing or non-numeric
// values fall back to the first page of DefaultPerPage; out of range numbers
// are kept so validation can reject them.
func PaginatedRequestFromQuery(q url.Values) *PaginatedRequest {
	return &PaginatedRequest{
		Page:    queryInt(q, "page", 1),
		PerPage: queryInt(q, "per_page", DefaultPerPage),
	}
}

func queryInt(q url.Values, key string, fallback int) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return fallback
	}
	return n
}

func (p PaginatedRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

func (p PaginatedRequest) Limit() int {
	switch {
	case p.PerPage < 1:
		return DefaultPerPage
	case p.PerPage > MaxPerPage:
		return MaxPerPage
	}
	return p.PerPage
}
