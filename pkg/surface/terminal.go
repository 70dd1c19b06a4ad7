package surface

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/ashaboard/ashaboard/pkg/ranking"
)

// TerminalRenderer renders the board as a colored terminal table.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func levelColor(l Level) string {
	if noColor() {
		return ""
	}
	switch l {
	case LevelHigh:
		return colorRed
	case LevelMedium:
		return colorYellow
	default:
		return colorGreen
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) Render(w io.Writer, board *ranking.Board) error {
	fmt.Fprintf(w, "%s\n", bold("Village risk leaderboard"))
	fmt.Fprintf(w, "%s\n\n", dim(fmt.Sprintf("version %d, generated %s",
		board.Version, board.GeneratedAt.Format("2006-01-02 15:04 MST"))))

	if len(board.Entries) == 0 {
		fmt.Fprintln(w, "No villages currently at risk.")
		fmt.Fprintln(w)
		return nil
	}

	width := len("Village")
	for _, e := range board.Entries {
		if n := utf8.RuneCountInString(e.Village); n > width {
			width = n
		}
	}

	fmt.Fprintf(w, "  %4s  %-*s  %5s  %8s  %12s\n", "Rank", width, "Village", "Score", "Patients", "Water issues")
	for _, e := range board.Entries {
		score := colored(fmt.Sprintf("%5d", e.Score), levelColor(LevelFor(e.Score)))
		fmt.Fprintf(w, "  %4d  %-*s  %s  %8d  %12d\n",
			e.Rank, width, e.Village, score, e.Patients, e.WaterIssues)
	}
	fmt.Fprintln(w)

	return nil
}
