// Package pagination implements the page/limit convention shared by every list endpoint.
package pagination

import (
	"math"
	"strconv"
)

const MaxLimit = 100

// MaxPage keeps Offset within an int32 for every allowed limit.
const MaxPage = math.MaxInt32 / MaxLimit

// Params is a 1-indexed page request.
type Params struct {
	Page  int
	Limit int
}

// Meta is the pagination block returned next to list results.
type Meta struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// Parse reads raw query values, falling back to page 1 and defaultLimit for
// missing or malformed input. The limit is capped at MaxLimit and the page at
// MaxPage.
func Parse(page, limit string, defaultLimit int) Params {
	p := Params{Page: 1, Limit: defaultLimit}
	if n, err := strconv.Atoi(page); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return p
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// NewMeta builds the pagination block. hasNext is page*limit < total so that a
// completely full last page reports no next page.
func NewMeta(p Params, total int64) Meta {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Meta{
		CurrentPage: p.Page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     int64(p.Page)*int64(p.Limit) < total,
		HasPrev:     p.Page > 1,
	}
}
