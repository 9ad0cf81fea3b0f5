package poll

import "fmt"

// Level grades a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
)

func (l Level) String() string {
	if l == LevelWarning {
		return "warning"
	}
	return "info"
}

// Notice is a user-visible, non-fatal message about a command outcome.
type Notice struct {
	Level Level
	Text  string
	Err   error
}

func (n Notice) String() string {
	if n.Err != nil {
		return fmt.Sprintf("%s: %v", n.Text, n.Err)
	}
	return n.Text
}
