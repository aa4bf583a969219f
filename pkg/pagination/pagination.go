package pagination

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	// LookupLimit is the default for short reference lists such as regimens.
	LookupLimit = 50
	MaxLimit    = 200
	// MaxOffset bounds (page-1)*limit so it fits a Postgres integer.
	MaxOffset = math.MaxInt32
)

// Params holds the page window requested by a client.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// FromContext reads page and limit. Missing, malformed or non-positive values
// fall back to page 1 and defaultLimit; limit is capped at MaxLimit and page
// at the last page whose offset stays within MaxOffset.
func FromContext(c echo.Context, defaultLimit int) Params {
	return New(c.QueryParam("page"), c.QueryParam("limit"), defaultLimit)
}

func New(pageStr, limitStr string, defaultLimit int) Params {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if maxPage := MaxOffset/limit + 1; page > maxPage {
		page = maxPage
	}

	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// Meta is the pagination block of a list response.
type Meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Response is the list envelope. Data is always a JSON array.
type Response[T any] struct {
	Data       []T  `json:"data"`
	Pagination Meta `json:"pagination"`
}

func NewResponse[T any](data []T, total int, p Params) *Response[T] {
	if data == nil {
		data = []T{}
	}
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return &Response[T]{
		Data:       data,
		Pagination: Meta{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages},
	}
}
