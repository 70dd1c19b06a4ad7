// Package surface defines output rendering for ashaboard leaderboards.
// Implementations handle different output targets: terminal, Markdown, JSON.
package surface

import (
	"fmt"
	"io"

	"github.com/ashaboard/ashaboard/pkg/ranking"
)

// Renderer produces formatted output from a leaderboard.
type Renderer interface {
	// Render writes the formatted board to the writer.
	Render(w io.Writer, board *ranking.Board) error
}

// Output formats accepted by New.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// New returns the renderer for an output format name.
func New(format string) (Renderer, error) {
	switch format {
	case FormatText, "":
		return &TerminalRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatMarkdown, "md":
		return &MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or markdown)", format)
	}
}

// Level buckets a score for display. Scores of 5 or more are high risk,
// 3 or more medium.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// LevelFor returns the display bucket for a score.
func LevelFor(score int) Level {
	switch {
	case score >= 5:
		return LevelHigh
	case score >= 3:
		return LevelMedium
	default:
		return LevelLow
	}
}
