package render

// Cell represents a single character cell of the HUD grid.
type Cell struct {
	Glyph byte  // ASCII code, space or 0 for blank
	FG    uint8 // foreground palette index
	BG    uint8 // background palette index
}

// CellBuffer is a 2D grid of character cells.
type CellBuffer struct {
	Cols  int
	Rows  int
	Cells []Cell
}

// NewCellBuffer creates a buffer filled with blank cells.
func NewCellBuffer(cols, rows int) *CellBuffer {
	b := &CellBuffer{Cols: cols, Rows: rows, Cells: make([]Cell, cols*rows)}
	b.Clear()
	return b
}

// Resize changes the grid size, discarding the contents.
func (b *CellBuffer) Resize(cols, rows int) {
	if cols == b.Cols && rows == b.Rows {
		b.Clear()
		return
	}
	b.Cols, b.Rows = cols, rows
	b.Cells = make([]Cell, cols*rows)
	b.Clear()
}

// Set writes a single cell at (x, y). Out-of-bounds writes are ignored.
func (b *CellBuffer) Set(x, y int, glyph byte, fg, bg uint8) {
	if x >= 0 && x < b.Cols && y >= 0 && y < b.Rows {
		b.Cells[y*b.Cols+x] = Cell{Glyph: glyph, FG: fg, BG: bg}
	}
}

// Get reads a single cell at (x, y). Out-of-bounds reads return a blank cell.
func (b *CellBuffer) Get(x, y int) Cell {
	if x >= 0 && x < b.Cols && y >= 0 && y < b.Rows {
		return b.Cells[y*b.Cols+x]
	}
	return Cell{}
}

// Clear resets all cells to blank.
func (b *CellBuffer) Clear() {
	for i := range b.Cells {
		b.Cells[i] = Cell{Glyph: ' ', FG: ColorWhite, BG: ColorBlack}
	}
}

// WriteString writes s starting at (x, y), one cell per rune. Runes outside
// ASCII become '?'. It returns the column after the last written cell.
func (b *CellBuffer) WriteString(x, y int, s string, fg, bg uint8) int {
	for _, ch := range s {
		if ch > 126 {
			ch = '?'
		}
		b.Set(x, y, byte(ch), fg, bg)
		x++
	}
	return x
}

// RowText returns row y as a string with trailing blanks trimmed.
func (b *CellBuffer) RowText(y int) string {
	if y < 0 || y >= b.Rows {
		return ""
	}
	row := make([]byte, b.Cols)
	end := 0
	for x := 0; x < b.Cols; x++ {
		g := b.Cells[y*b.Cols+x].Glyph
		if g == 0 {
			g = ' '
		}
		row[x] = g
		if g != ' ' {
			end = x + 1
		}
	}
	return string(row[:end])
}

// DrawCells paints buf onto c with cells of cw x ch pixels. Runs of same
// colored glyphs are drawn as one Text call.
func DrawCells(c Canvas, buf *CellBuffer, cw, ch int) {
	for y := 0; y < buf.Rows; y++ {
		cy := float64(y*ch) + float64(ch)/2
		start := -1
		var fg uint8
		flush := func(end int) {
			if start < 0 {
				return
			}
			run := make([]byte, 0, end-start)
			for x := start; x < end; x++ {
				g := buf.Cells[y*buf.Cols+x].Glyph
				if g == 0 {
					g = ' '
				}
				run = append(run, g)
			}
			c.Text(float64(start*cw), cy, string(run), Palette[fg&15])
			start = -1
		}
		for x := 0; x < buf.Cols; x++ {
			cell := buf.Cells[y*buf.Cols+x]
			blank := cell.Glyph == ' ' || cell.Glyph == 0
			if blank || (start >= 0 && cell.FG != fg) {
				flush(x)
			}
			if !blank && start < 0 {
				start, fg = x, cell.FG
			}
		}
		flush(buf.Cols)
	}
}
