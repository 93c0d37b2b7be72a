package pagination

import (
	"net/url"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a validated page selection.
type Page struct {
	Number int
	Size   int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ParsePage reads page and page_size from query values, clamping to
// sane bounds. Anything unparsable falls back to the defaults.
func ParsePage(query url.Values) Page {
	page := Page{Number: 1, Size: DefaultPageSize}

	if n, err := strconv.Atoi(query.Get("page")); err == nil && n > 0 {
		page.Number = n
	}
	if size, err := strconv.Atoi(query.Get("page_size")); err == nil && size > 0 {
		if size > MaxPageSize {
			size = MaxPageSize
		}
		page.Size = size
	}

	return page
}

// Envelope wraps one already-paginated page of results. Previous and
// Next are links to the adjacent pages, or null at the edges.
type Envelope struct {
	Count    int64   `json:"count"`
	Pages    int     `json:"pages"`
	Previous *string `json:"previous"`
	Next     *string `json:"next"`
	Results  any     `json:"results"`
}

// NewEnvelope shapes a page of results. requestURL is the URL the page
// was requested with; adjacent-page links are built by rewriting its
// page parameter. Page slicing itself is the caller's concern.
func NewEnvelope(requestURL *url.URL, page Page, count int64, results any) Envelope {
	pages := int((count + int64(page.Size) - 1) / int64(page.Size))
	if pages < 1 {
		pages = 1
	}

	envelope := Envelope{
		Count:   count,
		Pages:   pages,
		Results: results,
	}

	if page.Number > 1 {
		envelope.Previous = pageLink(requestURL, page.Number-1)
	}
	if page.Number < pages {
		envelope.Next = pageLink(requestURL, page.Number+1)
	}

	return envelope
}

func pageLink(requestURL *url.URL, number int) *string {
	link := *requestURL
	query := link.Query()
	query.Set("page", strconv.Itoa(number))
	link.RawQuery = query.Encode()

	s := link.String()
	return &s
}
