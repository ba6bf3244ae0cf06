package logging

import (
	"fmt"
	"io"
	"os"
)

// EarlyLog writes plain lines before the structured logger is configured.
type EarlyLog struct {
	name string
	out  io.Writer
	err  io.Writer
}

func NewEarlyLog(name string) *EarlyLog {
	return &EarlyLog{name: name, out: os.Stdout, err: os.Stderr}
}

func (l *EarlyLog) Error(msg string, args ...interface{}) {
	l.write(l.err, "ERROR", msg, args...)
}

func (l *EarlyLog) Warn(msg string, args ...interface{}) {
	l.write(l.err, "WARN", msg, args...)
}

func (l *EarlyLog) Info(msg string, args ...interface{}) {
	l.write(l.out, "INFO", msg, args...)
}

func (l *EarlyLog) write(w io.Writer, level, msg string, args ...interface{}) {
	fmt.Fprintf(w, "%s [%s] %s\n", level, l.name, fmt.Sprintf(msg, args...))
}
