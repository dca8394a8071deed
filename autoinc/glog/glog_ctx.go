package glog

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	reqid "github.com/JuhQ/MongoHelper/autoinc/util/request_id"
)

const requestIDField = "request_id"

// formatMetaTag returns a formatted request ID tag from the context,
// like "request_id:abc123". Returns an empty string if no request ID is found.
func formatMetaTag(ctx context.Context) string {
	if requestID := reqid.Get(ctx); requestID != "" {
		return fmt.Sprintf("%s:%s", requestIDField, requestID)
	}
	return ""
}

// InfofCtx is a context-aware alternative to Verbose.Infof.
// Logs to the INFO log, guarded by the value of v, and prepends a request ID from the context if present.
func (v Verbose) InfofCtx(ctx context.Context, format string, args ...interface{}) {
	if !v {
		return
	}
	if metaTag := formatMetaTag(ctx); metaTag != "" {
		format = metaTag + " " + format
	}
	glog.InfoDepthf(1, format, args...)
}

// InfofCtx logs a formatted message at info level, prepending a request ID from
// the context if it exists.
func InfofCtx(ctx context.Context, format string, args ...interface{}) {
	if metaTag := formatMetaTag(ctx); metaTag != "" {
		format = metaTag + " " + format
	}
	glog.InfoDepthf(1, format, args...)
}

// WarningfCtx logs to the WARNING and INFO logs.
func WarningfCtx(ctx context.Context, format string, args ...interface{}) {
	if metaTag := formatMetaTag(ctx); metaTag != "" {
		format = metaTag + " " + format
	}
	glog.WarningDepthf(1, format, args...)
}

// ErrorfCtx logs to the ERROR, WARNING, and INFO logs.
func ErrorfCtx(ctx context.Context, format string, args ...interface{}) {
	if metaTag := formatMetaTag(ctx); metaTag != "" {
		format = metaTag + " " + format
	}
	glog.ErrorDepthf(1, format, args...)
}
