package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassContextLogsBaseAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	passCtx := NewPassContext(logger, 7)
	require.NotEmpty(t, passCtx.PassID)

	passCtx.Complete(3)

	out := buf.String()
	assert.Contains(t, out, "check pass complete")
	assert.Contains(t, out, "pass_id="+passCtx.PassID)
	assert.Contains(t, out, "user_id=7")
	assert.Contains(t, out, "fired=3")
}

func TestPassContextRoundTripsThroughContext(t *testing.T) {
	passCtx := NewPassContext(nil, 0)
	ctx := WithPassContext(context.Background(), passCtx)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, passCtx, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
