package replica

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/arcanebooks/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultConnectTimeout bounds the wait for the first connection.
const DefaultConnectTimeout = 15 * time.Second

// Options configures the socket.io connection.
type Options struct {
	URL                string
	Path               string // Overrides the path of URL when set
	Namespace          string
	ConnectTimeout     time.Duration
	InsecureSkipVerify bool
}

// Client is a Replica bound to a live socket.io connection.
type Client struct {
	*Replica
	io        *socket.Socket
	stopWatch func()
}

// Connect dials the peer hub, wires the replica events and publishes an
// initial snapshot. It blocks until the connection is up, the context is
// cancelled or the connect timeout expires.
func Connect(ctx context.Context, store Store, opts Options) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("component", "replica", "url", opts.URL)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("sync URL %q must be absolute", opts.URL)
	}

	sopts := socket.DefaultOptions()
	path := opts.Path
	if path == "" {
		path = parsedURL.Path
	}
	if path != "" {
		sopts.SetPath(path)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(opts.Namespace, sopts)

	rep := New(store, func(event string, args ...any) error {
		return io.Emit(event, args...)
	}, logger)

	for _, ev := range []string{EventReplace, EventAdd, EventRequest} {
		io.On(types.EventName(ev), func(args ...any) {
			if err := rep.Handle(ev, args...); err != nil {
				logger.Warn("Failed to handle peer event.", "event", ev, "error", err)
			}
		})
	}

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to peers.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	logger.Debug("Initiating connection...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	c := &Client{Replica: rep, io: io, stopWatch: rep.Watch()}
	if err := rep.Publish(); err != nil {
		logger.Warn("Initial snapshot not sent.", "error", err)
	}
	return c, nil
}

// Close stops publishing and disconnects.
func (c *Client) Close() {
	c.stopWatch()
	c.io.Disconnect()
}
