package kit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
)

// ServeLines runs an MCP session over a line-delimited JSON-RPC stream:
// one request per line in, one response per line out. It returns nil when r
// is exhausted, or ctx.Err() once ctx is done. A blocked read is interrupted
// by closing r when it is an io.Closer (os.Stdin is).
func ServeLines(ctx context.Context, srv *server.MCPServer, r io.Reader, w io.Writer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	ctx = WithTransport(ctx, "mcp")

	type read struct {
		line []byte
		err  error
	}
	lines := make(chan read)
	done := make(chan struct{})
	defer close(done)

	go func() {
		reader := bufio.NewReader(r)
		for {
			line, err := reader.ReadBytes('\n')
			select {
			case lines <- read{line: line, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		var in read
		select {
		case <-ctx.Done():
			if c, ok := r.(io.Closer); ok {
				c.Close()
			}
			return ctx.Err()
		case in = <-lines:
		}

		line := in.line
		if len(line) > 0 && line[len(line)-1] == '\n' {
			line = line[:len(line)-1]
		}
		if len(line) > 0 {
			if werr := handleLine(ctx, srv, line, w, logger); werr != nil {
				return werr
			}
		}
		if in.err != nil {
			if in.err == io.EOF {
				return nil
			}
			return fmt.Errorf("mcp read: %w", in.err)
		}
	}
}

func handleLine(ctx context.Context, srv *server.MCPServer, line []byte, w io.Writer, logger *slog.Logger) error {
	response := srv.HandleMessage(ctx, json.RawMessage(line))
	if response == nil {
		return nil
	}
	data, err := json.Marshal(response)
	if err != nil {
		logger.Error("MCP marshal failed", "error", err)
		return nil
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("mcp write: %w", err)
	}
	return nil
}
