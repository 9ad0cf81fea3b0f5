package engine

import (
	"strings"

	"github.com/spacehole-rogue/orbitview/internal/render"
)

// noticeWidth is where long notices wrap on the HUD.
const noticeWidth = 60

// NoticeLog is a bounded FIFO of HUD notices.
type NoticeLog struct {
	lines   []render.NoticeLine
	maxSize int
}

// NewNoticeLog creates a log that keeps the most recent maxSize lines.
func NewNoticeLog(maxSize int) *NoticeLog {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &NoticeLog{
		lines:   make([]render.NoticeLine, 0, maxSize),
		maxSize: maxSize,
	}
}

// Add appends text, wrapped at the HUD width, evicting the oldest lines
// when full.
func (l *NoticeLog) Add(text string, warning bool) {
	for _, line := range wrapText(text, noticeWidth) {
		n := render.NoticeLine{Text: line, Warning: warning}
		if len(l.lines) >= l.maxSize {
			copy(l.lines, l.lines[1:])
			l.lines[len(l.lines)-1] = n
		} else {
			l.lines = append(l.lines, n)
		}
	}
}

// Lines returns the retained lines, oldest first.
func (l *NoticeLog) Lines() []render.NoticeLine {
	return append([]render.NoticeLine(nil), l.lines...)
}

// wrapText splits s into lines no longer than maxWidth. Words longer than
// maxWidth are kept whole.
func wrapText(s string, maxWidth int) []string {
	if len(s) <= maxWidth {
		return []string{s}
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var result []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > maxWidth {
			result = append(result, line)
			line = w
		} else {
			line += " " + w
		}
	}
	return append(result, line)
}
