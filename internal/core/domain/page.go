package domain

import (
	"errors"
	"fmt"
	"strings"
)

type PageKind string

const (
	PageKindDocument PageKind = "document"
	PageKindImage    PageKind = "image"
)

const (
	DefaultMaxPages     = 20
	DefaultMaxPageBytes = 10 * 1024 * 1024
)

// Page is one user-selected file. Pages are concatenated in list order before extraction.
type Page struct {
	Name      string   `json:"name"`
	Size      int64    `json:"size"`
	MIMEType  string   `json:"mime_type"`
	Kind      PageKind `json:"kind"`
	PageCount int      `json:"page_count,omitempty"`
	Data      []byte   `json:"-"`
}

// PageInfo is the data-free view of a Page.
type PageInfo struct {
	Index     int      `json:"index"`
	Name      string   `json:"name"`
	Size      int64    `json:"size"`
	MIMEType  string   `json:"mime_type"`
	Kind      PageKind `json:"kind"`
	PageCount int      `json:"page_count,omitempty"`
}

func (p Page) Info(index int) PageInfo {
	return PageInfo{
		Index:     index,
		Name:      p.Name,
		Size:      p.Size,
		MIMEType:  p.MIMEType,
		Kind:      p.Kind,
		PageCount: p.PageCount,
	}
}

type PageLimits struct {
	MaxPages     int
	MaxPageBytes int64
}

func DefaultPageLimits() PageLimits {
	return PageLimits{
		MaxPages:     DefaultMaxPages,
		MaxPageBytes: DefaultMaxPageBytes,
	}
}

func (l PageLimits) normalize() PageLimits {
	out := l
	if out.MaxPages <= 0 {
		out.MaxPages = DefaultMaxPages
	}
	if out.MaxPageBytes <= 0 {
		out.MaxPageBytes = DefaultMaxPageBytes
	}
	return out
}

// PageSet is the ordered list of pages awaiting submission.
// It is not safe for concurrent use.
type PageSet struct {
	limits PageLimits
	pages  []Page
}

func NewPageSet(limits PageLimits) *PageSet {
	return &PageSet{limits: limits.normalize()}
}

func (s *PageSet) Limits() PageLimits {
	return s.limits
}

// Add appends pages in the given order. The whole batch is rejected if any page
// breaks a limit.
func (s *PageSet) Add(pages ...Page) error {
	if len(pages) == 0 {
		return nil
	}
	if len(s.pages)+len(pages) > s.limits.MaxPages {
		return WrapError(ErrInvalidInput, "add pages",
			fmt.Errorf("at most %d pages can be selected", s.limits.MaxPages))
	}
	for _, p := range pages {
		if strings.TrimSpace(p.Name) == "" {
			return WrapError(ErrInvalidInput, "add pages", errors.New("page name is required"))
		}
		if p.Size > s.limits.MaxPageBytes {
			return WrapError(ErrInvalidInput, "add pages",
				fmt.Errorf("%s exceeds the %d byte page limit", p.Name, s.limits.MaxPageBytes))
		}
	}
	s.pages = append(s.pages, pages...)
	return nil
}

// Remove deletes the page at index, shifting later pages down.
func (s *PageSet) Remove(index int) error {
	if index < 0 || index >= len(s.pages) {
		return WrapError(ErrInvalidInput, "remove page",
			fmt.Errorf("page index %d out of range", index))
	}
	s.pages = append(s.pages[:index], s.pages[index+1:]...)
	if len(s.pages) == 0 {
		s.pages = nil
	}
	return nil
}

// Reorder moves the page at from to position to. Indices are clamped to the
// valid range; a move onto the same position is a no-op.
func (s *PageSet) Reorder(from, to int) {
	n := len(s.pages)
	if n < 2 {
		return
	}
	from = clampIndex(from, n)
	to = clampIndex(to, n)
	if from == to {
		return
	}
	moved := s.pages[from]
	s.pages = append(s.pages[:from], s.pages[from+1:]...)
	s.pages = append(s.pages[:to], append([]Page{moved}, s.pages[to:]...)...)
}

func (s *PageSet) Clear() {
	s.pages = nil
}

func (s *PageSet) Len() int {
	return len(s.pages)
}

func (s *PageSet) IsEmpty() bool {
	return s.pages == nil
}

// Pages returns a copy of the current order.
func (s *PageSet) Pages() []Page {
	if s.pages == nil {
		return nil
	}
	out := make([]Page, len(s.pages))
	copy(out, s.pages)
	return out
}

func (s *PageSet) Infos() []PageInfo {
	out := make([]PageInfo, 0, len(s.pages))
	for i, p := range s.pages {
		out = append(out, p.Info(i))
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
