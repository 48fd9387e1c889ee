/*
Package logger writes per-source chat transcripts to day-rotating files.

Files are laid out as <folder>/<source>/YYYY/MM/DD.txt and each line is
prefixed with a timestamp. A new day's file begins once midnight has passed
and either four hours have elapsed since the last write or the hour is 06:00
or later; until then writes continue into the previous day's file, so a
conversation running past midnight is not cut in half.
*/
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Mode selects where log lines are written.
type Mode uint8

// The log modes.
const (
	File Mode = iota
	Console
	Both
)

const (
	timestampFormat = "2006-01-02 15:04:05"
	// rotateGrace is how long after the last write a crossed midnight
	// forces a new day-file even during quiet hours.
	rotateGrace = 4 * time.Hour
	// rotateHour is the wall clock hour after which a crossed midnight
	// always starts a new day-file.
	rotateHour = 6
)

// Logger appends timestamped lines to day-rotating files under a base
// directory, one subtree per source. Safe for concurrent use.
type Logger struct {
	baseDir   string
	curDate   time.Time
	lastLog   time.Time
	dayPassed bool
	protect   sync.Mutex

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a Logger rooted at baseDir.
func New(baseDir string) *Logger {
	now := time.Now()
	return &Logger{
		baseDir: baseDir,
		curDate: now,
		lastLog: now,
		now:     time.Now,
	}
}

// genPath builds (and creates the directories for) the file path of the
// given source and date.
func (l *Logger) genPath(source string, date time.Time) (string, error) {
	dir := filepath.Join(
		l.baseDir,
		source,
		date.Format("2006"),
		date.Format("01"),
	)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, date.Format("02")+".txt"), nil
}

// LogWithMode writes one line for the given source using the given mode.
func (l *Logger) LogWithMode(source, what string, mode Mode) error {
	l.protect.Lock()
	defer l.protect.Unlock()

	now := l.now()
	stamp := now.Format(timestampFormat)

	if mode == Console || mode == Both {
		fmt.Printf("[%s] %s: %s\n", stamp, source, what)
	}

	if mode != File && mode != Both {
		return nil
	}

	if dateAfter(now, l.lastLog) {
		l.dayPassed = true
	}
	if l.dayPassed &&
		(now.Sub(l.lastLog) > rotateGrace || now.Hour() >= rotateHour) {
		l.curDate = now
		l.dayPassed = false
	}

	path, err := l.genPath(source, l.curDate)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err = fmt.Fprintf(file, "[%s] %s\n", stamp, what); err != nil {
		return err
	}
	l.lastLog = now
	return nil
}

// Log writes one line for the given source to both the console and the
// day-file.
func (l *Logger) Log(source, what string) error {
	return l.LogWithMode(source, what, Both)
}

// dateAfter reports whether a's calendar date is after b's.
func dateAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
