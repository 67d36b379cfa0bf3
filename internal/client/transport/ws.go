package transport

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	reconnectMin = time.Second
	reconnectMax = time.Minute
)

// Notification is one message pushed by the server. Currently the only type
// is "sync": another device pushed changes.
type Notification struct {
	Type string `json:"type"`
}

// WSListener keeps a websocket to the server's /api/ws endpoint open and
// invokes the callback whenever the server nudges this device to sync.
// Disconnects are retried with exponential backoff until ctx is done.
type WSListener struct {
	baseURL string
	token   string
	onSync  func()
}

func NewWSListener(baseURL, token string, onSync func()) *WSListener {
	return &WSListener{baseURL: baseURL, token: token, onSync: onSync}
}

// wsURL rewrites the HTTP base URL into its websocket counterpart.
func (l *WSListener) wsURL() (string, error) {
	u, err := url.Parse(l.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/ws"
	q := u.Query()
	q.Set("token", l.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run blocks until ctx is done.
func (l *WSListener) Run(ctx context.Context) error {
	addr, err := l.wsURL()
	if err != nil {
		return err
	}

	backoff := reconnectMin
	for {
		if err := l.listenOnce(ctx, addr); err != nil && ctx.Err() == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > reconnectMax {
				backoff = reconnectMax
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		backoff = reconnectMin
	}
}

func (l *WSListener) listenOnce(ctx context.Context, addr string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// close the connection when ctx is cancelled so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var n Notification
		if err := json.Unmarshal(msg, &n); err != nil {
			continue
		}
		if n.Type == "sync" && l.onSync != nil {
			l.onSync()
		}
	}
}
