package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

var (
	logFile     *os.File
	logDir      string
	currentDay  string
	logMu       sync.Mutex
	fileLogging bool
	program     = filepath.Base(os.Args[0])
	out         io.Writer = os.Stderr
	minLevel              = LevelWarn
)

// Init enables the daily log file under dir. An empty dir keeps logging on
// standard error only.
func Init(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	logMu.Lock()
	defer logMu.Unlock()
	logDir = dir
	fileLogging = true
	if err := rotateLocked(time.Now()); err != nil {
		fileLogging = false
		return err
	}
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	fileLogging = false
}

// SetProgram sets the name printed in front of every terminal line.
func SetProgram(name string) {
	logMu.Lock()
	defer logMu.Unlock()
	program = name
}

// SetOutput redirects terminal output and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	logMu.Lock()
	defer logMu.Unlock()
	prev := out
	out = w
	return prev
}

// SetVerbose makes Info lines visible on the terminal. The log file always
// receives every level.
func SetVerbose(v bool) {
	logMu.Lock()
	defer logMu.Unlock()
	if v {
		minLevel = LevelInfo
	} else {
		minLevel = LevelWarn
	}
}

func Info(format string, args ...interface{}) {
	log(LevelInfo, format, args...)
}

func Warn(format string, args ...interface{}) {
	log(LevelWarn, format, args...)
}

func Error(format string, args ...interface{}) {
	log(LevelError, format, args...)
}

func log(lvl Level, format string, args ...interface{}) {
	nowTime := time.Now()
	msg := fmt.Sprintf(format, args...)
	var label string
	var paint func(format string, a ...interface{}) string
	switch lvl {
	case LevelInfo:
		label, paint = "[INFO] ", color.GreenString
	case LevelWarn:
		label, paint = "[WARN] ", color.YellowString
	case LevelError:
		label, paint = "[EROR] ", color.RedString // 4 chars align
	}

	logMu.Lock()
	defer logMu.Unlock()

	// File output (no color), with daily rollover
	if fileLogging {
		line := fmt.Sprintf("%s %s[%d] %s%s\n", nowTime.Format("2006/01/02 15:04:05"), program, os.Getpid(), label, msg)
		if err := rotateLocked(nowTime); err == nil && logFile != nil {
			_, _ = logFile.WriteString(line)
		}
	}

	if lvl >= minLevel {
		fmt.Fprintf(out, "%s: %s%s\n", program, paint("%s", label), msg)
	}
}

func rotateLocked(t time.Time) error {
	if logDir == "" {
		return nil
	}
	day := t.Format("2006-01-02")
	if logFile != nil && currentDay == day {
		return nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	filePath := filepath.Join(logDir, day+".log")
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	logFile = f
	currentDay = day
	return nil
}
