package utils

import (
	"fmt"
	"net/http"
	"strconv"

	"OrderOps/internal/config"
)

const maxLimit = 200

// PaginationParams is echoed back to clients under the "pagination" key.
type PaginationParams struct {
	Page         int `json:"page"`
	Limit        int `json:"limit"`
	Offset       int `json:"offset"`
	TotalRecords int `json:"total_records"`
	TotalPages   int `json:"total_pages"`
}

// ExtractPagination reads ?page= and ?limit=. Limits above maxLimit are
// clamped rather than rejected.
func ExtractPagination(r *http.Request) (PaginationParams, error) {
	q := r.URL.Query()
	page, err := positiveParam(q.Get("page"), "page", 1)
	if err != nil {
		return PaginationParams{}, err
	}
	limit, err := positiveParam(q.Get("limit"), "limit", config.DefaultPageSize)
	if err != nil {
		return PaginationParams{}, err
	}
	limit = min(limit, maxLimit)
	return PaginationParams{Page: page, Limit: limit, Offset: (page - 1) * limit}, nil
}

func positiveParam(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s parameter: %s", name, raw)
	}
	return n, nil
}

func (p *PaginationParams) SetPaginationStats(totalRecords int) {
	p.TotalRecords = totalRecords
	p.TotalPages = 0
	if totalRecords > 0 && p.Limit > 0 {
		p.TotalPages = (totalRecords + p.Limit - 1) / p.Limit
	}
}
