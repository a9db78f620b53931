package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/alucardeht/wayleave/internal/logger"
	"github.com/alucardeht/wayleave/internal/mcp"
	"github.com/alucardeht/wayleave/internal/tools"
)

var log = logger.ForComponent("daemon")

// Daemon serves the tool handler over a unix socket. Every connection is a
// JSON-RPC 2.0 stream of plain JSON objects.
type Daemon struct {
	listener     *SocketListener
	registry     *tools.Registry
	handler      *mcp.Handler
	connections  map[*jsonrpc2.Conn]bool
	connMu       sync.Mutex
	wg           sync.WaitGroup
	shutdown     chan struct{}
	shutdownOnce sync.Once
	startTime    time.Time
}

func NewDaemon(socketPath string, registry *tools.Registry) *Daemon {
	return &Daemon{
		listener:    NewSocketListener(socketPath),
		registry:    registry,
		handler:     mcp.NewHandler(registry),
		connections: make(map[*jsonrpc2.Conn]bool),
		shutdown:    make(chan struct{}),
		startTime:   time.Now(),
	}
}

func (d *Daemon) Start() error {
	if err := d.listener.Start(); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.listener.Path(), err)
	}
	log.Info("daemon listening", "socket", d.listener.Path(), "tools", d.ToolCount())

	d.wg.Add(1)
	go d.acceptConnections()
	return nil
}

// Run starts the daemon and serves until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-d.shutdown:
	}
	d.Shutdown()
	return nil
}

func (d *Daemon) acceptConnections() {
	defer d.wg.Done()

	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.shutdown:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("accept failed", "error", err)
			continue
		}

		d.wg.Add(1)
		go d.handleConnection(conn)
	}
}

func (d *Daemon) handleConnection(netConn net.Conn) {
	defer d.wg.Done()

	stream := jsonrpc2.NewBufferedStream(netConn, jsonrpc2.PlainObjectCodec{})
	conn := jsonrpc2.NewConn(context.Background(), stream,
		jsonrpc2.AsyncHandler(jsonrpc2.HandlerWithError(d.handle)))

	d.connMu.Lock()
	select {
	case <-d.shutdown:
		d.connMu.Unlock()
		conn.Close()
		return
	default:
	}
	d.connections[conn] = true
	d.connMu.Unlock()
	log.Debug("client connected")

	<-conn.DisconnectNotify()

	d.connMu.Lock()
	delete(d.connections, conn)
	d.connMu.Unlock()
	log.Debug("client disconnected")
}

func (d *Daemon) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	mreq := &mcp.Request{
		JSONRPC: "2.0",
		Method:  req.Method,
	}
	if !req.Notif {
		mreq.ID = req.ID.String()
	}
	if req.Params != nil {
		mreq.Params = *req.Params
	}

	resp := d.handler.Handle(mreq)
	if resp == nil {
		return nil, nil
	}
	if resp.Error != nil {
		return nil, &jsonrpc2.Error{Code: int64(resp.Error.Code), Message: resp.Error.Message}
	}
	return resp.Result, nil
}

func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() {
		log.Info("daemon shutting down")
		close(d.shutdown)

		d.listener.Close()

		d.connMu.Lock()
		for conn := range d.connections {
			conn.Close()
		}
		d.connMu.Unlock()

		d.wg.Wait()
		d.listener.Remove()
	})
}

func (d *Daemon) SocketPath() string {
	return d.listener.Path()
}

func (d *Daemon) Uptime() time.Duration {
	return time.Since(d.startTime)
}

func (d *Daemon) ToolCount() int {
	return len(d.registry.Names())
}
