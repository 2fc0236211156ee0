package terminal

import (
	"github.com/rivo/uniseg"
)

// TextCells lays s out from p as one cell per grapheme cluster
// Wide clusters occupy two columns; text past the last column is dropped
func TextCells(p Position, s string, style Style, size Size) []PositionedCell {
	cells := make([]PositionedCell, 0, len(s))
	col := p.Col
	state := -1
	for len(s) > 0 && col <= size.Cols {
		var cluster string
		var width int
		cluster, s, width, state = uniseg.FirstGraphemeClusterInString(s, state)
		if width == 0 {
			continue
		}
		if col+width-1 > size.Cols {
			break
		}
		cells = append(cells, PositionedCell{
			Pos:  Position{Row: p.Row, Col: col},
			Cell: Cell{Ch: []rune(cluster)[0], Fg: style.Fg, Bg: style.Bg, Attrs: style.Attrs},
		})
		col += width
	}
	return cells
}
