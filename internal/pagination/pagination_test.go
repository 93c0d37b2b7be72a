package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestParsePage_Defaults(t *testing.T) {
	page := ParsePage(url.Values{})

	assert.Equal(t, 1, page.Number)
	assert.Equal(t, DefaultPageSize, page.Size)
}

func TestParsePage_ClampsAndFallsBack(t *testing.T) {
	testCases := []struct {
		name     string
		query    url.Values
		expected Page
	}{
		{
			name:     "Explicit page and size",
			query:    url.Values{"page": {"3"}, "page_size": {"25"}},
			expected: Page{Number: 3, Size: 25},
		},
		{
			name:     "Oversized page_size clamps to max",
			query:    url.Values{"page_size": {"9999"}},
			expected: Page{Number: 1, Size: MaxPageSize},
		},
		{
			name:     "Negative values fall back",
			query:    url.Values{"page": {"-1"}, "page_size": {"-5"}},
			expected: Page{Number: 1, Size: DefaultPageSize},
		},
		{
			name:     "Garbage falls back",
			query:    url.Values{"page": {"abc"}, "page_size": {"xyz"}},
			expected: Page{Number: 1, Size: DefaultPageSize},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParsePage(tc.query))
		})
	}
}

func TestPage_Offset(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 1, Size: 10}.Offset())
	assert.Equal(t, 20, Page{Number: 3, Size: 10}.Offset())
}

func TestNewEnvelope_MiddlePage(t *testing.T) {
	u := mustParseURL(t, "/api/users?page=2&page_size=10")

	envelope := NewEnvelope(u, Page{Number: 2, Size: 10}, 25, []string{"a", "b"})

	assert.EqualValues(t, 25, envelope.Count)
	assert.Equal(t, 3, envelope.Pages)
	require.NotNil(t, envelope.Previous)
	require.NotNil(t, envelope.Next)
	assert.Contains(t, *envelope.Previous, "page=1")
	assert.Contains(t, *envelope.Next, "page=3")
}

func TestNewEnvelope_FirstPageHasNoPrevious(t *testing.T) {
	u := mustParseURL(t, "/api/users?page=1")

	envelope := NewEnvelope(u, Page{Number: 1, Size: 10}, 25, nil)

	assert.Nil(t, envelope.Previous)
	require.NotNil(t, envelope.Next)
	assert.Contains(t, *envelope.Next, "page=2")
}

func TestNewEnvelope_LastPageHasNoNext(t *testing.T) {
	u := mustParseURL(t, "/api/users?page=3")

	envelope := NewEnvelope(u, Page{Number: 3, Size: 10}, 25, nil)

	require.NotNil(t, envelope.Previous)
	assert.Nil(t, envelope.Next)
}

func TestNewEnvelope_EmptyResultSetStillHasOnePage(t *testing.T) {
	u := mustParseURL(t, "/api/users")

	envelope := NewEnvelope(u, Page{Number: 1, Size: 10}, 0, nil)

	assert.EqualValues(t, 0, envelope.Count)
	assert.Equal(t, 1, envelope.Pages)
	assert.Nil(t, envelope.Previous)
	assert.Nil(t, envelope.Next)
}

func TestNewEnvelope_PreservesOtherQueryParams(t *testing.T) {
	u := mustParseURL(t, "/api/users?page=2&page_size=5&search=ada")

	envelope := NewEnvelope(u, Page{Number: 2, Size: 5}, 20, nil)

	require.NotNil(t, envelope.Next)
	assert.Contains(t, *envelope.Next, "search=ada")
	assert.Contains(t, *envelope.Next, "page_size=5")
}
