package highlighter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spansNamed(spans []Span, name string) []Span {
	var out []Span
	for _, s := range spans {
		if s.StyleName == name {
			out = append(out, s)
		}
	}
	return out
}

func TestHighlightMarkdown(t *testing.T) {
	h, err := New()
	require.NoError(t, err)
	defer h.Close()

	text := "# Título\n\n- one\n- two\n\n```go\nx := 1\n```\n\n> quoted\n\n---\n"
	spans, err := h.Highlight(context.Background(), text)
	require.NoError(t, err)

	headings := spansNamed(spans, "heading")
	require.NotEmpty(t, headings)
	assert.Equal(t, 0, headings[0].Start)

	markers := spansNamed(spans, "heading.marker")
	require.Len(t, markers, 1)
	assert.Equal(t, Span{Start: 0, End: 1, StyleName: "heading.marker"}, markers[0])

	lists := spansNamed(spans, "list.marker")
	require.Len(t, lists, 2)
	assert.Equal(t, 10, lists[0].Start, "offsets count runes, not bytes")

	code := spansNamed(spans, "code")
	require.Len(t, code, 1)
	assert.Equal(t, 23, code[0].Start)

	assert.Len(t, spansNamed(spans, "label"), 1)
	assert.Len(t, spansNamed(spans, "quote"), 1)
	assert.Len(t, spansNamed(spans, "rule"), 1)

	for i := 1; i < len(spans); i++ {
		assert.LessOrEqual(t, spans[i-1].Start, spans[i].Start)
	}
}

func TestHighlightPlainText(t *testing.T) {
	h, err := New()
	require.NoError(t, err)
	defer h.Close()

	spans, err := h.Highlight(context.Background(), "just a paragraph")
	require.NoError(t, err)
	assert.Empty(t, spans)

	spans, err = h.Highlight(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestRuneIndexTable(t *testing.T) {
	assert.Equal(t, []int{0, 1, 1, 2, 2, 2, 3}, runeIndexTable([]byte("añ€")))
	assert.Equal(t, []int{0}, runeIndexTable(nil))
}
