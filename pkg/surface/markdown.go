package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/ashaboard/ashaboard/pkg/ranking"
)

// maxMarkdownRows caps the table so it stays readable when pasted into a
// report or chat.
const maxMarkdownRows = 10

// MarkdownRenderer renders the board as a Markdown table.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(w io.Writer, board *ranking.Board) error {
	_, err := io.WriteString(w, BuildMarkdown(board))
	return err
}

// BuildMarkdown returns the Markdown summary of a board.
func BuildMarkdown(board *ranking.Board) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Village risk leaderboard (v%d)\n\n", board.Version))

	if len(board.Entries) == 0 {
		sb.WriteString("_No villages currently at risk._\n")
		return sb.String()
	}

	sb.WriteString("| Rank | Village | Score | Patients | Water issues |\n")
	sb.WriteString("|------|---------|-------|----------|--------------|\n")
	for i, e := range board.Entries {
		if i >= maxMarkdownRows {
			sb.WriteString(fmt.Sprintf("\n_... and %d more villages_\n", len(board.Entries)-maxMarkdownRows))
			break
		}
		sb.WriteString(fmt.Sprintf("| %d | %s %s | %d | %d | %d |\n",
			e.Rank, levelIcon(LevelFor(e.Score)), e.Village, e.Score, e.Patients, e.WaterIssues))
	}

	return sb.String()
}

func levelIcon(l Level) string {
	switch l {
	case LevelHigh:
		return ":red_circle:"
	case LevelMedium:
		return ":orange_circle:"
	default:
		return ":yellow_circle:"
	}
}
