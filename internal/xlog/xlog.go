// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package xlog is the structured, leveled logger every long-lived
// component (peer handler, L2 actors, block executor) threads through,
// grounded on luxfi-evm's geth-compatible `log.Logger` API
// (log.Info/Warn/Error/Debug with key-value pairs) and wired to
// luxfi-evm's own TTY-color and rotating-file dependencies instead of
// reimplementing either.
package xlog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "EROR"
	default:
		return "????"
	}
}

// Logger is a leveled logger carrying static context fields (e.g.
// component=snapsync, pivot=...), the way luxfi-evm threads a
// log.Logger with fixed fields through its long-running subsystems.
type Logger struct {
	out    io.Writer
	color  bool
	ctx    []interface{}
	minLvl Level
}

// New opens a console logger on stdout via mattn/go-colorable and records
// whether stdout is a TTY (mattn/go-isatty, luxfi-evm's dependency pair
// for this); log output carries no color codes either way.
func New(minLvl Level) *Logger {
	isTTY := isatty.IsTerminal(os.Stdout.Fd())
	return &Logger{out: colorable.NewColorableStdout(), color: isTTY, minLvl: minLvl}
}

// NewFileLogger opens a rotating-file logger via lumberjack, luxfi-evm's
// file-sink dependency, for durable logs independent of the console. No
// component in this module calls it.
func NewFileLogger(path string, minLvl Level) *Logger {
	return &Logger{
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		},
		minLvl: minLvl,
	}
}

// With returns a derived Logger that always emits the given key-value
// pairs in addition to its own, without mutating the receiver.
func (l *Logger) With(kv ...interface{}) *Logger {
	nctx := make([]interface{}, 0, len(l.ctx)+len(kv))
	nctx = append(nctx, l.ctx...)
	nctx = append(nctx, kv...)
	return &Logger{out: l.out, color: l.color, ctx: nctx, minLvl: l.minLvl}
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.log(LevelDebug, msg, kv...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.log(LevelInfo, msg, kv...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.log(LevelWarn, msg, kv...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.log(LevelError, msg, kv...) }

func (l *Logger) log(lvl Level, msg string, kv ...interface{}) {
	if lvl < l.minLvl {
		return
	}
	ts := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	fmt.Fprintf(l.out, "t=%s lvl=%s msg=%q", ts, lvl, msg)
	all := append(append([]interface{}{}, l.ctx...), kv...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(l.out, " %v=%v", all[i], all[i+1])
	}
	fmt.Fprintln(l.out)
}

var root = New(LevelInfo)

func Root() *Logger { return root }
func SetRoot(l *Logger) { root = l }
