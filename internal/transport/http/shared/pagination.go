package shared

import (
	"net/http"
	"strconv"
)

// Pagination is the resolved window for a list endpoint. The cashier
// frontend sends page numbers; offset stays accepted for API clients,
// and wins when both are present.
type Pagination struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	query := r.URL.Query()

	limit := queryInt(query.Get("limit"), defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	offset := queryInt(query.Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}
	if offset == 0 {
		if page := queryInt(query.Get("page"), 0); page > 1 {
			offset = (page - 1) * limit
		}
	}

	return Pagination{Limit: limit, Offset: offset}
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
