// Package wplog wraps the standard library logger with the topic-prefixed
// levels that WirePlumber's C sources use (wp_debug, wp_info, wp_notice,
// wp_warning, wp_critical), one per source file or subsystem.
package wplog

import (
	"log"
	"os"
)

// Logger writes leveled, topic-prefixed lines through a standard *log.Logger.
type Logger struct {
	topic string
	out   *log.Logger
}

var std = log.New(os.Stderr, "", log.LstdFlags)

// Topic returns a Logger tagged with the given topic, analogous to
// WP_DEFINE_LOCAL_LOG_TOPIC in the original C sources.
func Topic(name string) *Logger {
	return &Logger{topic: name, out: std}
}

func (l *Logger) prefix(level string) string {
	return level + " " + l.topic + ": "
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.out.Printf(l.prefix("debug")+format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.out.Printf(l.prefix("info")+format, args...)
}

func (l *Logger) Notice(format string, args ...interface{}) {
	l.out.Printf(l.prefix("notice")+format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.out.Printf(l.prefix("warning")+format, args...)
}

func (l *Logger) Critical(format string, args ...interface{}) {
	l.out.Printf(l.prefix("critical")+format, args...)
}
