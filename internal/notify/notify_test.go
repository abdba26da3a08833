package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/specialistvlad/plume/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zishang520/socket.io/v2/socket"
)

// reloadServer starts a socket.io server that records every "reload" event
// and acknowledges it when ack is set.
func reloadServer(t *testing.T, ack bool) (string, <-chan []any) {
	t.Helper()
	received := make(chan []any, 1)

	io := socket.NewServer(nil, nil)
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", io.ServeHandler(nil))
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		io.Close(nil)
		srv.Close()
	})

	io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		client.On("reload", func(args ...any) {
			var reply socket.Ack
			if n := len(args); n > 0 {
				if a, ok := args[n-1].(socket.Ack); ok {
					reply = a
					args = args[:n-1]
				}
			}
			select {
			case received <- args:
			default:
			}
			if ack && reply != nil {
				reply([]any{"ok"}, nil)
			}
		})
	})
	return srv.URL, received
}

func TestNotifyRejectsBadURL(t *testing.T) {
	testCases := []struct {
		name string
		url  string
	}{
		{"unparsable", "://nowhere"},
		{"no host", "localhost"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n := New(&config.Notify{URL: tc.url, Namespace: "/", Event: "reload", Timeout: time.Second})
			err := n.Notify(context.Background(), nil)
			require.Error(t, err)
		})
	}
}

func TestNotifyUnreachableServer(t *testing.T) {
	n := New(&config.Notify{
		URL:       "http://127.0.0.1:1",
		Namespace: "/",
		Event:     "reload",
		Timeout:   300 * time.Millisecond,
	})

	start := time.Now()
	err := n.Notify(context.Background(), map[string]any{"copied": 1})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNotifyDeliversEvent(t *testing.T) {
	url, received := reloadServer(t, true)
	n := New(&config.Notify{URL: url, Namespace: "/", Event: "reload", Timeout: 5 * time.Second})

	err := n.Notify(context.Background(), map[string]any{"profile": "light", "copied": []string{"a.js"}})
	require.NoError(t, err)

	select {
	case args := <-received:
		require.Len(t, args, 1)
		payload, ok := args[0].(map[string]any)
		require.True(t, ok, "payload is %T", args[0])
		assert.Equal(t, "light", payload["profile"])
		assert.Equal(t, []any{"a.js"}, payload["copied"])
	default:
		t.Fatal("server did not receive the event before Notify returned")
	}
}

func TestNotifyFailsWithoutAcknowledgement(t *testing.T) {
	url, received := reloadServer(t, false)
	n := New(&config.Notify{URL: url, Namespace: "/", Event: "reload", Timeout: 500 * time.Millisecond})

	err := n.Notify(context.Background(), map[string]any{"copied": []string{"a.js"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acknowledgement")

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the event")
	}
}
