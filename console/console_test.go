package console

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	bytes.Buffer
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "debug")
	require.NoError(t, err)

	l.Info("row written", "row", 7, "slot", "A")
	l.Debug("crc passed", "row", 7)
	l.Error("failed", "odd")

	out := buf.String()
	assert.Contains(t, out, `level=info msg="row written" row=7 slot=A`)
	assert.Contains(t, out, `level=debug msg="crc passed" row=7`)
	assert.Contains(t, out, "level=error msg=failed odd=")
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "info")
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	_, err = New(&buf, "loud")
	assert.Error(t, err)
}

func TestLoggerClose(t *testing.T) {
	sink := &closeRecorder{}
	l, err := New(sink, "info")
	require.NoError(t, err)

	l.Info("before")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	l.Info("after")

	assert.Equal(t, 1, sink.closed)
	assert.Contains(t, sink.String(), "before")
	assert.NotContains(t, sink.String(), "after")
}

func TestFields(t *testing.T) {
	f := fields([]interface{}{"a", 1, 2, "b", "dangling"})
	assert.Equal(t, 1, f["a"])
	assert.Equal(t, "b", f["2"])
	v, ok := f["dangling"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestOpenDefaultsToStdout(t *testing.T) {
	sink, desc, err := Open(Options{})
	require.NoError(t, err)
	assert.Equal(t, "stdout", desc)
	assert.NoError(t, sink.Close())
}

func TestOpenSerialMissingPort(t *testing.T) {
	_, _, err := Open(Options{Port: "/dev/does-not-exist-sdboot"})
	assert.ErrorContains(t, err, "open serial port")
}

func TestDialWebSocketRejectsScheme(t *testing.T) {
	_, err := DialWebSocket("http://localhost:1", false)
	assert.ErrorContains(t, err, "unsupported URL scheme")
}

func TestWebSocketSink(t *testing.T) {
	received := make(chan string, 4)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				close(received)
				return
			}
			if mt == websocket.TextMessage {
				received <- string(data)
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	sink, desc, err := Open(Options{URL: url})
	require.NoError(t, err)
	assert.Equal(t, "WebSocket: "+url, desc)

	l, err := New(sink, "info")
	require.NoError(t, err)
	l.Info("enter bootloader", "layout", "rows=360")
	require.NoError(t, l.Close())

	msg := <-received
	assert.Contains(t, msg, `msg="enter bootloader"`)
	assert.Contains(t, msg, `layout="rows=360"`)

	// the server sees the close frame
	_, open := <-received
	assert.False(t, open)
}
