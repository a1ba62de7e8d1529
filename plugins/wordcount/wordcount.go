// plugins/wordcount/wordcount.go
package wordcount

import (
	"fmt"
	"strings"

	"github.com/bethropolis/collabmd/internal/event"
	"github.com/bethropolis/collabmd/internal/plugin"
	"github.com/bethropolis/collabmd/internal/utils"
)

// Ensure WordCount implements plugin.Plugin
var _ plugin.Plugin = (*WordCount)(nil)

// WordCount keeps a word count of the shared text in the status bar.
type WordCount struct {
	api plugin.EditorAPI
}

func New() *WordCount {
	return &WordCount{}
}

func (p *WordCount) Name() string {
	return "wordcount"
}

func (p *WordCount) Initialize(api plugin.EditorAPI) error {
	p.api = api
	api.SubscribeEvent(event.TypeTextChanged, func(event.Event) bool {
		p.update()
		return false
	})
	p.update()
	return nil
}

func (p *WordCount) Shutdown() error {
	return nil
}

func (p *WordCount) update() {
	p.api.SetStatusItem(p.Name(), Summary(p.api.Text()))
}

// Stats are the counts shown for a text.
type Stats struct {
	Lines int
	Words int
	Runes int
}

// Count computes Stats. An empty text has one line.
func Count(text string) Stats {
	return Stats{
		Lines: strings.Count(text, "\n") + 1,
		Words: len(strings.Fields(text)),
		Runes: utils.RuneLen(text),
	}
}

// Summary is the status bar text for text.
func Summary(text string) string {
	s := Count(text)
	if s.Words == 1 {
		return "1 word"
	}
	return fmt.Sprintf("%d words", s.Words)
}
