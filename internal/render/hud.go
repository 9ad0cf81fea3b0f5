package render

import "fmt"

// DefaultHelp is the key reference shown on the HUD's last row.
const DefaultHelp = "Drag: Pan  +/-: Zoom  S: Start  R: Reset  T: Trails  O: Orbits  [/]: Speed  P: Plot  ESC: Quit"

// NoticeLine is one entry of the HUD notice panel.
type NoticeLine struct {
	Text    string
	Warning bool
}

// Status is the HUD's view of the engine.
type Status struct {
	Scale     float64 // current pixels per AU
	TimeScale float64
	Trails    bool
	Orbits    bool
	Bodies    int
	Traces    int

	// Cursor position in AU, shown when HasCursor is set.
	HasCursor        bool
	CursorX, CursorY float64

	Notices []NoticeLine
}

// HUD lays out the status overlay on a cell grid.
type HUD struct {
	Help       string
	MaxNotices int
}

// NewHUD creates a HUD with the default help line.
func NewHUD() *HUD {
	return &HUD{Help: DefaultHelp, MaxNotices: 4}
}

// Compose writes s into buf, clearing it first.
func (h *HUD) Compose(buf *CellBuffer, s Status) {
	buf.Clear()
	x := buf.WriteString(1, 0, fmt.Sprintf("1 AU = %.0fpx", s.Scale), ColorLightCyan, ColorBlack)
	x = buf.WriteString(x+3, 0, fmt.Sprintf("time x%g", s.TimeScale), ColorWhite, ColorBlack)
	x = buf.WriteString(x+3, 0, "trails "+onOff(s.Trails), flagColor(s.Trails), ColorBlack)
	x = buf.WriteString(x+3, 0, "orbits "+onOff(s.Orbits), flagColor(s.Orbits), ColorBlack)
	buf.WriteString(x+3, 0, fmt.Sprintf("bodies %d", s.Bodies), ColorLightGray, ColorBlack)

	if s.HasCursor {
		buf.WriteString(1, 1, fmt.Sprintf("cursor %.3f, %.3f AU", s.CursorX, s.CursorY), ColorDarkGray, ColorBlack)
	}

	notices := s.Notices
	if h.MaxNotices > 0 && len(notices) > h.MaxNotices {
		notices = notices[len(notices)-h.MaxNotices:]
	}
	row := buf.Rows - 2 - len(notices)
	for _, n := range notices {
		clr := uint8(ColorCyan)
		if n.Warning {
			clr = ColorYellow
		}
		buf.WriteString(1, row, n.Text, clr, ColorBlack)
		row++
	}

	if h.Help != "" {
		buf.WriteString(1, buf.Rows-1, h.Help, ColorDarkGray, ColorBlack)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func flagColor(b bool) uint8 {
	if b {
		return ColorLightGreen
	}
	return ColorDarkGray
}
