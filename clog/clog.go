package clog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var logMutex sync.Mutex
var withColors bool = true
var displayLogLevel = INFO

type LogLevel uint

const (
	DEBUGXX LogLevel = iota
	DEBUGX
	DEBUG
	INFO
	WARNING
	ERROR
	NOTHING
)

var colorTags = [...]string{
	"\033[34mDEBUG++\033[0m",
	"\033[34mDEBUG+\033[0m",
	"\033[34mDEBUG\033[0m",
	"\033[90mINFO\033[0m",
	"\033[93mWARNING\033[0m",
	"\033[91mERROR\033[0m",
}

var plainTags = [...]string{
	"DEBUG++",
	"DEBUG+",
	"DEBUG",
	"INFO",
	"WARNING",
	"ERROR",
}

func (level LogLevel) String() string {
	if level < NOTHING {
		return plainTags[level]
	}
	return "NOTHING"
}

var consoleLog = log.New(os.Stderr, "", log.LstdFlags)
var fileLog *log.Logger
var logFile *os.File

func SetLogLevel(level LogLevel) {
	logMutex.Lock()
	displayLogLevel = level
	logMutex.Unlock()
}

func GetLogLevel() LogLevel {
	logMutex.Lock()
	defer logMutex.Unlock()
	return displayLogLevel
}

// SetOutput redirects console output. Colors are only used on a terminal
// (os.Stderr or os.Stdout).
func SetOutput(w io.Writer) {
	logMutex.Lock()
	consoleLog = log.New(w, "", log.LstdFlags)
	withColors = (w == os.Stderr || w == os.Stdout)
	logMutex.Unlock()
}

func SetLogFile(fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("could not open log file %s: %w", fname, err)
	}
	logMutex.Lock()
	logFile = f
	fileLog = log.New(f, "", log.LstdFlags)
	fileLog.Println("**************** START *****************")
	logMutex.Unlock()
	return nil
}

func Log(level LogLevel, format string, v ...interface{}) {
	var tag string

	logMutex.Lock()
	defer logMutex.Unlock()

	if level < displayLogLevel || level >= NOTHING {
		return
	}

	text := fmt.Sprintf(format, v...)
	if withColors {
		tag = colorTags[level]
	} else {
		tag = plainTags[level]
	}
	consoleLog.Println(tag + " " + text)
	if fileLog != nil {
		fileLog.Println(plainTags[level] + " " + text)
	}
}

// Terminate closes the log file, if any. It does not exit.
func Terminate() {
	Log(INFO, "Terminating.")
	logMutex.Lock()
	defer logMutex.Unlock()
	if fileLog != nil {
		fileLog.Println("**************** STOP *****************")
		logFile.Close()
		fileLog = nil
		logFile = nil
	}
}

func Warning(format string, v ...interface{}) {
	Log(WARNING, format, v...)
}

func Error(format string, v ...interface{}) {
	Log(ERROR, format, v...)
}

func Fatal(format string, v ...interface{}) {
	Log(ERROR, format, v...)
	Terminate()
	os.Exit(1)
}

func Info(format string, v ...interface{}) {
	Log(INFO, format, v...)
}

func Debug(format string, v ...interface{}) {
	Log(DEBUG, format, v...)
}

func DebugX(format string, v ...interface{}) {
	Log(DEBUGX, format, v...)
}

func DebugXX(format string, v ...interface{}) {
	Log(DEBUGXX, format, v...)
}
