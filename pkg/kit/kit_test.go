package kit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var calls []string
	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				calls = append(calls, name)
				return next(ctx, req)
			}
		}
	}
	ep := Chain(mw("a"), mw("b"), mw("c"))(func(context.Context, any) (any, error) {
		calls = append(calls, "endpoint")
		return "ok", nil
	})

	resp, err := ep(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, []string{"a", "b", "c", "endpoint"}, calls)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var seenID string
	ep := Logging(log, "lookup")(func(ctx context.Context, _ any) (any, error) {
		seenID = GetRequestID(ctx)
		return nil, errors.New("boom")
	})
	_, err := ep(WithTransport(context.Background(), "mcp"), nil)
	require.Error(t, err)

	assert.Len(t, seenID, 36)
	out := buf.String()
	assert.Contains(t, out, "endpoint=lookup")
	assert.Contains(t, out, "transport=mcp")
	assert.Contains(t, out, "request_id="+seenID)
	assert.Contains(t, out, "error=boom")
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "http", GetTransport(ctx))
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithRequestID(ctx, "r-1")
	assert.Equal(t, "r-1", GetRequestID(EnsureRequestID(ctx)))
}

func TestServeLines_CancelUnblocksRead(t *testing.T) {
	srv := server.NewMCPServer("test", "0")
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		var out bytes.Buffer
		errc <- ServeLines(ctx, srv, pr, &out, nil)
	}()

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeLines still blocked on read after cancel")
	}

	// The reader was closed, so the writer side sees it.
	_, err := pw.Write([]byte("{}\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestServeLines_EOF(t *testing.T) {
	srv := server.NewMCPServer("test", "0")
	var out bytes.Buffer
	err := ServeLines(context.Background(), srv, bytes.NewReader(nil), &out, nil)
	assert.NoError(t, err)
	assert.Empty(t, out.String())
}
