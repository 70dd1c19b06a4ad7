package surface

import (
	"encoding/json"
	"io"

	"github.com/ashaboard/ashaboard/pkg/ranking"
)

// JSONRenderer marshals the board to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, board *ranking.Board) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(board)
}
