package ctxlog

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContextReturnsStoredLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, false))

	FromContext(ctx).Info("hello", "subject", "PEG0005")
	FromContext(ctx).Debug("hidden")

	assert.Contains(t, buf.String(), "subject=PEG0005")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestFromContextWithoutLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		FromContext(context.Background()).Info("dropped")
	})
}

func TestVerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Debug("walk", "dir", "x")
	assert.Contains(t, buf.String(), "level=DEBUG")
}
