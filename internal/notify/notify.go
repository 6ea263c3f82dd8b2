// Package notify carries user-visible messages from the stores to whatever
// is rendering them.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notifier interface {
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

// Log writes notifications as log entries.
type Log struct {
	log *logrus.Entry
}

func NewLog(log *logrus.Entry) *Log {
	return &Log{log: log.WithField("component", "notify")}
}

func (n *Log) Success(msg string) { n.log.Info(msg) }
func (n *Log) Warning(msg string) { n.log.Warn(msg) }
func (n *Log) Error(msg string)   { n.log.Error(msg) }

// Writer prints one line per notification, the terminal's toast.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (n *Writer) Success(msg string) { n.print("✓", msg) }
func (n *Writer) Warning(msg string) { n.print("!", msg) }
func (n *Writer) Error(msg string)   { n.print("✗", msg) }

func (n *Writer) print(mark, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s %s\n", mark, msg)
}

type Entry struct {
	Level   Level
	Message string
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Warning(msg string) { r.add(LevelWarning, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }

func (r *Recorder) add(l Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: l, Message: msg})
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Last returns the most recent notification, or a zero Entry.
func (r *Recorder) Last() Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}
	}
	return r.entries[len(r.entries)-1]
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m Multi) Warning(msg string) {
	for _, n := range m {
		n.Warning(msg)
	}
}

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}
