package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"
)

type Span struct {
	TraceID    string            `json:"trace_id"`
	SpanID     string            `json:"span_id"`
	ParentID   string            `json:"parent_id,omitempty"`
	Operation  string            `json:"operation"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    *time.Time        `json:"end_time,omitempty"`
	Duration   *time.Duration    `json:"duration,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
	Status     SpanStatus        `json:"status"`
	Error      string            `json:"error,omitempty"`
	TraceFlags string            `json:"trace_flags,omitempty"` // W3C trace-flags byte, "01" is sampled
}

type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "OK"
	SpanStatusError SpanStatus = "ERROR"
)

type spanContextKey struct{}

// StartSpan opens a span, joining the trace of any span already in ctx.
func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		TraceID:    generateID(traceIDBytes),
		SpanID:     generateID(spanIDBytes),
		Operation:  operation,
		StartTime:  time.Now(),
		Status:     SpanStatusOK,
		Tags:       make(map[string]string),
		TraceFlags: sampledFlags,
	}

	if parent := GetSpan(ctx); parent != nil {
		span.ParentID = parent.SpanID
		span.TraceID = parent.TraceID
		span.TraceFlags = parent.TraceFlags
	}

	return context.WithValue(ctx, spanContextKey{}, span), span
}

func (s *Span) Finish() {
	now := time.Now()
	s.EndTime = &now
	duration := now.Sub(s.StartTime)
	s.Duration = &duration
}

func (s *Span) SetTag(key, value string) {
	if s.Tags == nil {
		s.Tags = make(map[string]string)
	}
	s.Tags[key] = value
}

func (s *Span) SetError(err error) {
	s.Status = SpanStatusError
	if err != nil {
		s.Error = err.Error()
	}
}

// LogValue renders the span as a log group.
func (s *Span) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("trace_id", s.TraceID),
		slog.String("span_id", s.SpanID),
		slog.String("operation", s.Operation),
		slog.String("status", string(s.Status)),
	}
	if s.ParentID != "" {
		attrs = append(attrs, slog.String("parent_id", s.ParentID))
	}
	if s.Duration != nil {
		attrs = append(attrs, slog.Duration("duration", *s.Duration))
	}
	if s.Error != "" {
		attrs = append(attrs, slog.String("error", s.Error))
	}
	for k, v := range s.Tags {
		attrs = append(attrs, slog.String(k, v))
	}
	return slog.GroupValue(attrs...)
}

func GetSpan(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanContextKey{}).(*Span); ok {
		return span
	}
	return nil
}

// StartRemoteSpan opens a span that continues the trace named by a W3C
// traceparent header. A malformed header starts a new trace.
func StartRemoteSpan(ctx context.Context, operation, traceparent string) (context.Context, *Span) {
	ctx, span := StartSpan(ctx, operation)
	if span.ParentID != "" {
		return ctx, span
	}
	if traceID, parentID, flags, ok := ParseTraceparent(traceparent); ok {
		span.TraceID = traceID
		span.ParentID = parentID
		span.TraceFlags = flags
	}
	return ctx, span
}

// Traceparent renders the span as a W3C traceparent header value. The
// flags are the ones the trace arrived with; span status is not encoded.
func (s *Span) Traceparent() string {
	flags := s.TraceFlags
	if flags == "" {
		flags = sampledFlags
	}
	return "00-" + s.TraceID + "-" + s.SpanID + "-" + flags
}

// ParseTraceparent extracts the trace id, parent span id and trace flags
// from a version 00 traceparent value.
func ParseTraceparent(v string) (traceID, parentID, flags string, ok bool) {
	parts := strings.Split(strings.TrimSpace(v), "-")
	if len(parts) != 4 || parts[0] != "00" {
		return "", "", "", false
	}
	if !isHexID(parts[1], traceIDBytes) || !isHexID(parts[2], spanIDBytes) {
		return "", "", "", false
	}
	if _, err := hex.DecodeString(parts[3]); err != nil || len(parts[3]) != 2 {
		return "", "", "", false
	}
	return parts[1], parts[2], strings.ToLower(parts[3]), true
}

const (
	traceIDBytes = 16
	spanIDBytes  = 8
	sampledFlags = "01"
)

func isHexID(s string, n int) bool {
	if len(s) != 2*n || strings.Trim(s, "0") == "" {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func generateID(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
