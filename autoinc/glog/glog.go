// Package glog is the leveled logger used across autoinc.
// It keeps the V(level).Infof call shape and routes everything to github.com/golang/glog,
// which owns the -v, -logtostderr and -log_dir flags.
package glog

import (
	"github.com/golang/glog"
)

type Level int32

// Verbose is true when the requested verbosity is enabled.
type Verbose bool

func V(level Level) Verbose {
	return Verbose(glog.VDepth(1, glog.Level(level)))
}

func (v Verbose) Info(args ...interface{}) {
	if v {
		glog.InfoDepth(1, args...)
	}
}

func (v Verbose) Infof(format string, args ...interface{}) {
	if v {
		glog.InfoDepthf(1, format, args...)
	}
}

func Info(args ...interface{}) {
	glog.InfoDepth(1, args...)
}

func Infof(format string, args ...interface{}) {
	glog.InfoDepthf(1, format, args...)
}

func Warning(args ...interface{}) {
	glog.WarningDepth(1, args...)
}

func Warningf(format string, args ...interface{}) {
	glog.WarningDepthf(1, format, args...)
}

func Error(args ...interface{}) {
	glog.ErrorDepth(1, args...)
}

func Errorf(format string, args ...interface{}) {
	glog.ErrorDepthf(1, format, args...)
}

func Fatal(args ...interface{}) {
	glog.FatalDepth(1, args...)
}

func Fatalf(format string, args ...interface{}) {
	glog.FatalDepthf(1, format, args...)
}

func Flush() {
	glog.Flush()
}
