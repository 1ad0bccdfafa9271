// Package diag carries the diagnostics of a conversion: located fatal
// errors that abort it and warnings that only degrade instrumentation.
package diag

import (
	"fmt"
	"go/token"
	"sync"

	"go.uber.org/zap"
)

// Severity ranks an issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Issue represents a diagnostic found while converting.
type Issue struct {
	Rule     string
	Category string
	Severity Severity
	Filename string
	Message  string
	Note     string
	Start    token.Position
	End      token.Position
}

// Error is a fatal conversion error attached to a source location.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	if !e.Pos.IsValid() && e.Pos.Filename == "" {
		return e.Msg
	}
	return e.Pos.String() + ": " + e.Msg
}

// Errorf builds a located Error.
func Errorf(pos token.Position, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Sink receives non-fatal diagnostics.
type Sink interface {
	Warn(pos token.Position, rule, msg string)
}

// ZapSink logs warnings through zap and records them as issues.
type ZapSink struct {
	logger *zap.Logger
	mu     sync.Mutex
	issues []Issue
}

// NewZapSink creates a sink. A nil logger only records.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Warn(pos token.Position, rule, msg string) {
	s.logger.Warn(msg,
		zap.String("rule", rule),
		zap.String("file", pos.Filename),
		zap.Int("line", pos.Line),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues = append(s.issues, Issue{
		Rule:     rule,
		Category: "conversion",
		Severity: SeverityWarning,
		Filename: pos.Filename,
		Message:  msg,
		Start:    pos,
		End:      pos,
	})
}

// Issues returns the recorded warnings.
func (s *ZapSink) Issues() []Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

// IssueFromError turns a fatal error into an issue.
func IssueFromError(rule string, err *Error) Issue {
	return Issue{
		Rule:     rule,
		Category: "conversion",
		Severity: SeverityError,
		Filename: err.Pos.Filename,
		Message:  err.Msg,
		Start:    err.Pos,
		End:      err.Pos,
	}
}
