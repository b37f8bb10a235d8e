// Package listview provides paginated, filterable read-only views over node and link collections.
package listview

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const DefaultPageSize = 50

// State is what list chrome (search box, pager) binds to.
type State struct {
	PageIndex     int    `json:"page_index"`
	PageSize      int    `json:"page_size"`
	Filter        string `json:"filter"`
	FilteredCount int    `json:"filtered_count"`
}

type Page[T any] struct {
	State
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

func (p Page[T]) HasPrev() bool { return p.PageIndex > 0 }

func (p Page[T]) HasNext() bool { return p.PageIndex < p.TotalPages-1 }

// Explorer filters and pages a slice it never modifies. Not safe for concurrent use.
type Explorer[T any] struct {
	fields   func(T) []string
	pageSize int

	source   []T
	filter   string
	page     int
	filtered []T
}

// New builds an explorer whose filter matches against the strings returned by fields.
func New[T any](pageSize int, fields func(T) []string) *Explorer[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Explorer[T]{fields: fields, pageSize: pageSize}
}

// SetSource replaces the collection and resets to the first page with no filter.
func (e *Explorer[T]) SetSource(items []T) {
	e.source = items
	e.filter = ""
	e.page = 0
	e.refilter()
}

// SetFilter applies a case-insensitive substring filter and returns to the first page.
func (e *Explorer[T]) SetFilter(text string) {
	e.filter = text
	e.page = 0
	e.refilter()
}

// GoToPage moves to page n, clamped into range.
func (e *Explorer[T]) GoToPage(n int) {
	e.page = clamp(n, 0, e.totalPages()-1)
}

func (e *Explorer[T]) Next() { e.GoToPage(e.page + 1) }

func (e *Explorer[T]) Prev() { e.GoToPage(e.page - 1) }

func (e *Explorer[T]) Filter() string { return e.filter }

func (e *Explorer[T]) State() State {
	return State{
		PageIndex:     e.page,
		PageSize:      e.pageSize,
		Filter:        e.filter,
		FilteredCount: len(e.filtered),
	}
}

func (e *Explorer[T]) Page() Page[T] {
	start := e.page * e.pageSize
	end := min(start+e.pageSize, len(e.filtered))
	items := []T{}
	if start < end {
		items = append(items, e.filtered[start:end]...)
	}
	return Page[T]{
		State:      e.State(),
		Items:      items,
		TotalCount: len(e.source),
		TotalPages: e.totalPages(),
	}
}

// CountLabel reads "12 of 340" while filtering and "340" otherwise.
func (e *Explorer[T]) CountLabel() string {
	if strings.TrimSpace(e.filter) == "" {
		return FormatCount(len(e.source))
	}
	return FormatCount(len(e.filtered)) + " of " + FormatCount(len(e.source))
}

func (e *Explorer[T]) totalPages() int {
	n := (len(e.filtered) + e.pageSize - 1) / e.pageSize
	return max(n, 1)
}

func (e *Explorer[T]) refilter() {
	needle := strings.ToLower(strings.TrimSpace(e.filter))
	if needle == "" {
		e.filtered = e.source
		return
	}
	e.filtered = make([]T, 0, len(e.source))
	for _, item := range e.source {
		if e.matches(item, needle) {
			e.filtered = append(e.filtered, item)
		}
	}
}

func (e *Explorer[T]) matches(item T, needle string) bool {
	if e.fields == nil {
		return false
	}
	for _, f := range e.fields(item) {
		if f != "" && strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
