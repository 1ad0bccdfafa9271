package diag

import (
	"errors"
	"fmt"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorFormat(t *testing.T) {
	t.Parallel()
	pos := token.Position{Filename: "a.go", Line: 3, Column: 2}
	err := Errorf(pos, "break without target")
	assert.Equal(t, "a.go:3:2: break without target", err.Error())
	assert.Equal(t, "bare", (&Error{Msg: "bare"}).Error())

	wrapped := fmt.Errorf("converting f: %w", err)
	var de *Error
	require.True(t, errors.As(wrapped, &de))
	assert.Equal(t, 3, de.Pos.Line)
}

func TestZapSink(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.WarnLevel)
	sink := NewZapSink(zap.New(core))

	pos := token.Position{Filename: "loop.go", Line: 7, Column: 1}
	sink.Warn(pos, "k-induction", "unsupported loop condition")

	issues := sink.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, "k-induction", issues[0].Rule)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
	assert.Equal(t, "loop.go", issues[0].Filename)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "unsupported loop condition", entry.Message)
	assert.Equal(t, "k-induction", entry.ContextMap()["rule"])
}

func TestIssueFromError(t *testing.T) {
	t.Parallel()
	issue := IssueFromError("convert", Errorf(token.Position{Filename: "x.go", Line: 1}, "boom"))
	assert.Equal(t, SeverityError, issue.Severity)
	assert.Equal(t, "boom", issue.Message)
	assert.Equal(t, "x.go", issue.Filename)
	assert.Equal(t, "error", issue.Severity.String())
}
