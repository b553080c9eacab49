// Package logger provides the leveled logger carried through request
// contexts.
package logger

import "log"

// Levels, lowest to highest. A logger prints everything at or above its
// own level; SILENCE drops all output.
const (
	DEBUG int = iota
	INFO
	WARNING
	ERROR
	SILENCE
)

type Logger interface {
	Debugf(msg string, a ...any)
	Infof(msg string, a ...any)
	Warnf(msg string, a ...any)
	Errorf(msg string, a ...any)
}

type defaultLogger struct {
	level int
}

func NewLogger(level int) *defaultLogger {
	return &defaultLogger{level: level}
}

func (l *defaultLogger) logf(level int, msg string, a ...any) {
	if l.level <= level {
		log.Printf(msg+"\n", a...)
	}
}

func (l *defaultLogger) Debugf(msg string, a ...any) { l.logf(DEBUG, msg, a...) }
func (l *defaultLogger) Infof(msg string, a ...any)  { l.logf(INFO, msg, a...) }
func (l *defaultLogger) Warnf(msg string, a ...any)  { l.logf(WARNING, msg, a...) }
func (l *defaultLogger) Errorf(msg string, a ...any) { l.logf(ERROR, msg, a...) }
