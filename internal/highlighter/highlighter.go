// Package highlighter parses markdown with tree-sitter and reports styled
// rune ranges for the surface.
package highlighter

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	markdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"

	"github.com/bethropolis/collabmd/internal/logger"
)

//go:embed queries/markdown/highlights.scm
var markdownHighlightsQuery []byte

// Span styles the runes [Start, End) of the whole text.
type Span struct {
	Start     int
	End       int
	StyleName string
}

// Highlighter owns a parser and the compiled markdown query.
// It is not safe for concurrent use.
type Highlighter struct {
	parser *sitter.Parser
	lang   *sitter.Language
	query  *sitter.Query
}

// New compiles the markdown highlight query.
func New() (*Highlighter, error) {
	lang := markdown.GetLanguage()
	query, err := sitter.NewQuery(markdownHighlightsQuery, lang)
	if err != nil {
		return nil, fmt.Errorf("compile markdown highlight query: %w", err)
	}
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	return &Highlighter{parser: parser, lang: lang, query: query}, nil
}

// Highlight parses text and returns its spans ordered by start. For equal
// starts the longer span comes first, so later spans draw over earlier ones.
func (h *Highlighter) Highlight(ctx context.Context, text string) ([]Span, error) {
	src := []byte(text)
	tree, err := h.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse markdown: %w", err)
	}
	defer tree.Close()

	runeAt := runeIndexTable(src)

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(h.query, tree.RootNode())

	var spans []Span
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			node := capture.Node
			start := runeAt[min(int(node.StartByte()), len(src))]
			end := runeAt[min(int(node.EndByte()), len(src))]
			if end <= start {
				continue
			}
			spans = append(spans, Span{
				Start:     start,
				End:       end,
				StyleName: captureNameToStyleName(h.query.CaptureNameForId(capture.Index)),
			})
		}
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})
	logger.DebugTagf("highlight", "%d spans for %d bytes", len(spans), len(src))
	return spans, nil
}

// Close releases the parser and query.
func (h *Highlighter) Close() {
	h.query.Close()
	h.parser.Close()
}

// captureNameToStyleName strips the leading '@'. Dotted names are kept whole;
// the theme falls back to the part before the dot.
func captureNameToStyleName(captureName string) string {
	return strings.TrimPrefix(captureName, "@")
}

// runeIndexTable maps every byte offset (including len(src)) to the rune
// index it falls in.
func runeIndexTable(src []byte) []int {
	table := make([]int, len(src)+1)
	runes := 0
	for i := 0; i < len(src); {
		_, size := utf8.DecodeRune(src[i:])
		for j := 0; j < size; j++ {
			table[i+j] = runes
		}
		i += size
		runes++
	}
	table[len(src)] = runes
	return table
}
