package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/alucardeht/wayleave/pkg/protocol"
)

var ErrNotRunning = errors.New("daemon not running")

type Client struct {
	conn *jsonrpc2.Conn
}

// Dial connects to the daemon socket. A missing or refusing socket yields an
// error wrapping ErrNotRunning.
func Dial(ctx context.Context, socketPath string) (*Client, error) {
	netConn, err := NewSocketConnector(socketPath).Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRunning, err)
	}

	stream := jsonrpc2.NewBufferedStream(netConn, jsonrpc2.PlainObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(rejectServerCalls))
	return &Client{conn: conn}, nil
}

func rejectServerCalls(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	return nil, &jsonrpc2.Error{
		Code:    jsonrpc2.CodeMethodNotFound,
		Message: fmt.Sprintf("client does not handle %s", req.Method),
	}
}

func (c *Client) Call(ctx context.Context, method string, params, result interface{}) error {
	return c.conn.Call(ctx, method, params, result)
}

// CallTool runs a tool and decodes its JSON text result into result.
func (c *Client) CallTool(ctx context.Context, name string, args, result interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}

	var out protocol.ToolResult
	if err := c.Call(ctx, "tools/call", protocol.ToolCall{Name: name, Arguments: raw}, &out); err != nil {
		return err
	}
	if len(out.Content) == 0 {
		return fmt.Errorf("tool %s returned no content", name)
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal([]byte(out.Content[0].Text), result)
}

func (c *Client) Ping(ctx context.Context) error {
	var out map[string]interface{}
	return c.Call(ctx, "ping", nil, &out)
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
