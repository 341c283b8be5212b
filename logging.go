package gatelab

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/muesli/termenv"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type DefaultLogger struct {
	mu     sync.Mutex
	debug  bool
	prefix string
	out    *log.Logger
	err    *log.Logger
	levels map[string]string
}

// NewDefaultLogger writes info and debug to stdout, warnings and errors to
// stderr. Level tags are coloured when the stream is a terminal.
func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	l := newLogger(os.Stdout, os.Stderr, prefix, debug, flags)
	return l
}

// NewWriterLogger sends every level to w without timestamps or colour.
func NewWriterLogger(w io.Writer, prefix string, debug bool) *DefaultLogger {
	return newLogger(w, w, prefix, debug, 0)
}

func newLogger(out, errOut io.Writer, prefix string, debug bool, flags int) *DefaultLogger {
	return &DefaultLogger{
		debug:  debug,
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(errOut, "", flags),
		levels: levelTags(errOut),
	}
}

func levelTags(w io.Writer) map[string]string {
	o := termenv.NewOutput(w)
	tag := func(level, hex string) string {
		return o.String(level).Foreground(o.Color(hex)).Bold().String()
	}
	return map[string]string{
		"DEBUG": tag("DEBUG", "#7f8c8d"),
		"INFO":  tag("INFO", "#32d5ff"),
		"WARN":  tag("WARN", "#ffb347"),
		"ERROR": tag("ERROR", "#ff5f5f"),
	}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *DefaultLogger) prefixf(level string, format string, args ...any) string {
	if tag, ok := l.levels[level]; ok {
		level = tag
	}
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s: %s", l.prefix, level, fmt.Sprintf(format, args...))
	}
	return fmt.Sprintf("%s: %s", level, fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.out.Print(l.prefixf("DEBUG", format, args...))
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Print(l.prefixf("INFO", format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.err.Print(l.prefixf("WARN", format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.err.Print(l.prefixf("ERROR", format, args...))
}

// prefixedLogger tags every message with a viewer's log prefix and forwards
// it to a shared logger.
type prefixedLogger struct {
	prefix string
	next   Logger
}

// WithPrefix returns a Logger that prepends "[prefix] " to each message.
func WithPrefix(l Logger, prefix string) Logger {
	if l == nil {
		l = NewNopLogger()
	}
	if prefix == "" {
		return l
	}
	return &prefixedLogger{prefix: "[" + prefix + "] ", next: l}
}

func (p *prefixedLogger) DebugEnabled() bool    { return p.next.DebugEnabled() }
func (p *prefixedLogger) SetDebug(enabled bool) { p.next.SetDebug(enabled) }
func (p *prefixedLogger) Debugf(format string, args ...any) {
	p.next.Debugf(p.prefix+format, args...)
}
func (p *prefixedLogger) Infof(format string, args ...any) {
	p.next.Infof(p.prefix+format, args...)
}
func (p *prefixedLogger) Warnf(format string, args ...any) {
	p.next.Warnf(p.prefix+format, args...)
}
func (p *prefixedLogger) Errorf(format string, args ...any) {
	p.next.Errorf(p.prefix+format, args...)
}

// LoggingModule installs a logger as a resource.
type LoggingModule struct {
	Prefix string
	Debug  bool
	Logger Logger
}

func (m LoggingModule) Install(app *App, cmd *Commands) {
	l := m.Logger
	if l == nil {
		l = NewDefaultLogger("", m.Debug)
	}
	app.addResources(&logResource{Logger: WithPrefix(l, m.Prefix)})
}

type logResource struct {
	Logger
}

// Nop logger and App helper accessor

type nopLogger struct{}

func NewNopLogger() Logger                             { return &nopLogger{} }
func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}

// Logger returns the installed logger, otherwise a no-op logger.
// Safe to call at any time; never returns nil.
func (app *App) Logger() Logger {
	if app == nil || app.resources == nil {
		return NewNopLogger()
	}
	if r := Resource[logResource](app); r != nil && r.Logger != nil {
		return r.Logger
	}
	return NewNopLogger()
}
