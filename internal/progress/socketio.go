package progress

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// emitter is the part of *socket.Socket the notifier uses.
type emitter interface {
	Emit(ev string, args ...any) error
}

// SocketIO emits events on a socket.io connection.
type SocketIO struct {
	io         emitter
	disconnect func()
}

// SocketIOOptions configures Dial.
type SocketIOOptions struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// Dial connects to a socket.io server and waits for the connection to be
// acknowledged.
func Dial(ctx context.Context, o SocketIOOptions) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("component", "progress", "url", o.URL)

	parsedURL, err := url.Parse(o.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse progress URL: %w", err)
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 15 * time.Second
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(o.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Progress notifier connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketIO{io: io, disconnect: func() { io.Disconnect() }}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(o.ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", o.ConnectTimeout)
	}
}

// NodeStatus implements Notifier.
func (s *SocketIO) NodeStatus(ctx context.Context, ev NodeEvent) {
	s.emit(ctx, EventNodeStatus, ev)
}

// RunFinished implements Notifier.
func (s *SocketIO) RunFinished(ctx context.Context, ev RunEvent) {
	s.emit(ctx, EventRunFinished, ev)
}

func (s *SocketIO) emit(ctx context.Context, event string, payload any) {
	if err := s.io.Emit(event, payload); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to emit progress event.", "event", event, "error", err)
	}
}

// Close disconnects from the server.
func (s *SocketIO) Close() error {
	if s.disconnect != nil {
		s.disconnect()
	}
	return nil
}
