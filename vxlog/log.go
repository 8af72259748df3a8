// Package vxlog provides the package-level logging facility used across
// vxtree: a small severity-filtered Logger interface with a default
// implementation that writes through the standard log package (stderr by
// default) or, if configured, to a
// lumberjack-rotated file.
package vxlog

import (
	"fmt"
	"log"
	"time"

	"github.com/natefinch/lumberjack"
)

// ModeFlag is the minimum severity that will be emitted.
type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	CriticalMode
	SilentMode
)

var (
	// Verbose enables Debugf output regardless of the configured mode.
	Verbose bool

	mode   ModeFlag
	logger Logger = stdLogger{}
)

// Logger is the logging surface vxtree code calls through. Swap the
// package-level logger with SetLogger to redirect output, e.g. in tests or
// when embedding vxtree in a larger service with its own log plumbing.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})
	Shutdown()
}

// SetLogMode sets the minimum severity that will be printed.
func SetLogMode(newMode ModeFlag) { mode = newMode }

// SetLogger replaces the package-level logger.
func SetLogger(l Logger) { logger = l }

func Debugf(format string, args ...interface{}) {
	if Verbose || mode <= DebugMode {
		logger.Debugf(format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	if mode <= InfoMode {
		logger.Infof(format, args...)
	}
}

func Warningf(format string, args ...interface{}) {
	if mode <= WarningMode {
		logger.Warningf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if mode <= ErrorMode {
		logger.Errorf(format, args...)
	}
}

func Criticalf(format string, args ...interface{}) {
	if mode <= CriticalMode {
		logger.Criticalf(format, args...)
	}
}

// Shutdown flushes and closes the package-level logger.
func Shutdown() { logger.Shutdown() }

// TimeLog appends elapsed-time-since-creation to every message it logs,
// for bracketing a long operation (e.g. a dilate/erode pass or a stream
// decode) with start/finish timing.
type TimeLog struct {
	logger Logger
	start  time.Time
}

// NewTimeLog returns a TimeLog against the package-level logger, timed
// from now.
func NewTimeLog() TimeLog {
	return TimeLog{logger, time.Now()}
}

func (t TimeLog) Debugf(format string, args ...interface{}) {
	if Verbose || mode <= DebugMode {
		t.logger.Debugf(format+": %s", append(args, time.Since(t.start))...)
	}
}

func (t TimeLog) Infof(format string, args ...interface{}) {
	if mode <= InfoMode {
		t.logger.Infof(format+": %s", append(args, time.Since(t.start))...)
	}
}

func (t TimeLog) Warningf(format string, args ...interface{}) {
	if mode <= WarningMode {
		t.logger.Warningf(format+": %s", append(args, time.Since(t.start))...)
	}
}

func (t TimeLog) Errorf(format string, args ...interface{}) {
	if mode <= ErrorMode {
		t.logger.Errorf(format+": %s", append(args, time.Since(t.start))...)
	}
}

func (t TimeLog) Shutdown() { t.logger.Shutdown() }

// stdLogger is the default Logger: plain log.Printf, optionally routed
// through a lumberjack-rotated file via Configure.
type stdLogger struct {
	file *lumberjack.Logger
}

// Configure routes subsequent log output to a rotating file. An empty
// filename leaves output on the standard log package's writer (stderr by
// default).
func Configure(filename string, maxSizeMB, maxAgeDays int) {
	if filename == "" {
		Infof("logging to stderr, no log file configured")
		return
	}
	fmt.Printf("logging to: %s\n", filename)
	l := &lumberjack.Logger{
		Filename: filename,
		MaxSize:  maxSizeMB,
		MaxAge:   maxAgeDays,
	}
	log.SetOutput(l)
	logger = stdLogger{file: l}
}

func (s stdLogger) Debugf(format string, args ...interface{}) {
	log.Printf(" DEBUG "+format, args...)
}

func (s stdLogger) Infof(format string, args ...interface{}) {
	log.Printf(" INFO "+format, args...)
}

func (s stdLogger) Warningf(format string, args ...interface{}) {
	log.Printf(" WARNING "+format, args...)
}

func (s stdLogger) Errorf(format string, args ...interface{}) {
	log.Printf(" ERROR "+format, args...)
}

func (s stdLogger) Criticalf(format string, args ...interface{}) {
	log.Printf(" CRITICAL "+format, args...)
}

func (s stdLogger) Shutdown() {
	if s.file != nil {
		s.file.Close()
	}
}
