package mcp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func TestTrafficLogging_ToolCall(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	next := func(context.Context, string, sdkmcp.Request) (sdkmcp.Result, error) {
		return nil, errors.New("boom")
	}
	ctx := context.WithValue(context.Background(), actorKey, testActor)
	_, err := trafficLoggingMiddleware(logger, "inbound")(next)(ctx, "tools/call", requestWithAuth(""))
	require.EqualError(t, err, "boom")

	out := buf.String()
	require.Contains(t, out, "msg=\"mcp request\"")
	require.Contains(t, out, "msg=\"mcp response\"")
	require.Contains(t, out, "tool=quote_get")
	require.Contains(t, out, "actor.business_id=b1")
	require.Contains(t, out, "error=boom")
}

func TestTrafficLogging_SkipsBelowDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	called := false
	next := func(context.Context, string, sdkmcp.Request) (sdkmcp.Result, error) {
		called = true
		return &sdkmcp.CallToolResult{}, nil
	}
	_, err := trafficLoggingMiddleware(logger, "inbound")(next)(context.Background(), "tools/call", requestWithAuth(""))
	require.NoError(t, err)
	require.True(t, called)
	require.Empty(t, buf.String())
}

func TestTruncatePayload(t *testing.T) {
	require.Equal(t, "<nil>", truncatePayload(nil))
	require.Equal(t, `{"id":"q1"}`, truncatePayload(map[string]string{"id": "q1"}))

	long := truncatePayload(strings.Repeat("x", maxLoggedPayload*2))
	require.True(t, strings.HasSuffix(long, "bytes)"))
	require.Less(t, len(long), maxLoggedPayload+32)
}
