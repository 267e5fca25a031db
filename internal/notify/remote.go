package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

// remoteNotification is the wire shape the server pushes over the
// WebSocket: one JSON object per text frame announcing a new revision
// that touched repos-relpath.
type remoteNotification struct {
	Revision     int64  `json:"revision"`
	ReposRelpath string `json:"repos_relpath"`
}

// RemoteListener subscribes to a server-pushed change feed over a
// WebSocket, for DAV servers that support one as an extension. This is
// purely an optimization over polling do_update/do_status periodically —
// nothing in the core depends on it being present or accurate.
type RemoteListener struct {
	url    string
	sink   Sink
	logger *slog.Logger
	dial   func(ctx context.Context, url string) (wsConn, error)
}

// wsConn abstracts the subset of *websocket.Conn used here so tests can
// inject a fake connection.
type wsConn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Close(code websocket.StatusCode, reason string) error
}

// NewRemoteListener creates a RemoteListener that dials wsURL (a ws:// or
// wss:// URL) on Listen.
func NewRemoteListener(wsURL string, sink Sink, logger *slog.Logger) *RemoteListener {
	if logger == nil {
		logger = slog.Default()
	}

	return &RemoteListener{
		url:    wsURL,
		sink:   sink,
		logger: logger,
		dial: func(ctx context.Context, url string) (wsConn, error) {
			conn, _, err := websocket.Dial(ctx, url, nil)
			return conn, err
		},
	}
}

// Listen blocks, reading notifications from the WebSocket and delivering
// Events to the sink, until ctx is canceled or the connection closes.
func (l *RemoteListener) Listen(ctx context.Context) error {
	conn, err := l.dial(ctx, l.url)
	if err != nil {
		return fmt.Errorf("notify: dialing %s: %w", l.url, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	l.logger.Info("remote listener connected", "url", l.url)

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			l.sink.Notify(Event{Kind: EventWatchError, Err: err, At: time.Now()})

			return fmt.Errorf("notify: reading from %s: %w", l.url, err)
		}

		if msgType != websocket.MessageText {
			continue
		}

		l.handleMessage(data)
	}
}

func (l *RemoteListener) handleMessage(data []byte) {
	var n remoteNotification
	if err := json.Unmarshal(data, &n); err != nil {
		l.logger.Warn("discarding malformed remote notification", "error", err.Error())
		return
	}

	l.sink.Notify(Event{
		Kind:     EventRemoteChange,
		Path:     n.ReposRelpath,
		Revision: n.Revision,
		At:       time.Now(),
	})
}
