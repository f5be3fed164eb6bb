// Package obslog is the runtime's ambient logger: every lifecycle event
// (spawn, rename, link, kill, termination) and every bridge request
// goes through here, the same way the teacher logs through log.Printf
// rather than a structured logger of its own. No third-party logging
// library appears in any retrieved example's go.mod, so this stays on
// the standard library by deliberate choice, not omission.
package obslog

import (
	"fmt"
	"log"
	"os"
)

// Logger prefixes every line with a component tag, the way the teacher
// tags its own log.Printf calls by hand ("registering Eliza", "spawn",
// and so on) rather than through a shared formatter.
type Logger struct {
	component string
	std       *log.Logger
}

// New returns a Logger for component, writing to os.Stderr with the
// standard date/time prefix.
func New(component string) *Logger {
	return &Logger{
		component: component,
		std:       log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *Logger) Printf(format string, args ...interface{}) {
	l.std.Printf("%s: %s", l.component, fmt.Sprintf(format, args...))
}

// Spawned logs a newly spawned actor.
func (l *Logger) Spawned(id string) {
	l.Printf("spawned %s", id)
}

// Renamed logs an actor's registry id changing, e.g. as the HTTP bridge
// binds a fresh spawn's UUID to a caller-chosen path.
func (l *Logger) Renamed(oldID, newID string) {
	l.Printf("renamed %s -> %s", oldID, newID)
}

// Linked logs a supervision link being established between two actors.
func (l *Logger) Linked(from, to string, trapExit bool) {
	l.Printf("linked %s -> %s (trap_exit=%v)", from, to, trapExit)
}

// Terminated logs an actor's exit, successful or not.
func (l *Logger) Terminated(id string, err error) {
	if err != nil {
		l.Printf("terminated %s: %v", id, err)
		return
	}
	l.Printf("terminated %s", id)
}

// Killed logs an explicit kill request landing on an actor.
func (l *Logger) Killed(id string) {
	l.Printf("killed %s", id)
}

// Request logs one bridge HTTP request, after the response has been
// decided, the way an access log line reports the outcome rather than
// the intent.
func (l *Logger) Request(method, path string, status int) {
	l.Printf("%s %s -> %d", method, path, status)
}
