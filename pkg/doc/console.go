package doc

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// Level classifies console output.
type Level int

const (
	LevelMessage Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelMessage:
		return "message"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Message is one line written to the console.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Console is the document's report channel. Every line is logged and kept
// so that callers can show what a recompute or update produced.
type Console struct {
	mu     sync.Mutex
	logger *log.Logger
	msgs   []Message
}

// NewConsole returns a console that logs to w.
func NewConsole(w io.Writer) *Console {
	return &Console{logger: log.New(w, "", log.LstdFlags)}
}

func (c *Console) write(l Level, format string, args ...any) {
	text := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, Message{Level: l, Text: text})
	switch l {
	case LevelWarning:
		c.logger.Printf("WARNING: %s", text)
	case LevelError:
		c.logger.Printf("ERROR: %s", text)
	default:
		c.logger.Print(text)
	}
}

func (c *Console) Printf(format string, args ...any)   { c.write(LevelMessage, format, args...) }
func (c *Console) Warningf(format string, args ...any) { c.write(LevelWarning, format, args...) }
func (c *Console) Errorf(format string, args ...any)   { c.write(LevelError, format, args...) }

// Messages returns a copy of everything written so far.
func (c *Console) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.msgs...)
}

// Lines returns the texts written at level l.
func (c *Console) Lines(l Level) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, m := range c.msgs {
		if m.Level == l {
			out = append(out, m.Text)
		}
	}
	return out
}

// Reset drops the kept messages.
func (c *Console) Reset() {
	c.mu.Lock()
	c.msgs = nil
	c.mu.Unlock()
}
