package console

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// DefaultBaud is the baud rate of the reference board's console UART.
const DefaultBaud = 115200

// Options selects a sink. URL wins over Port; with neither set the sink is
// stdout.
type Options struct {
	// Port is a serial port name such as /dev/ttyACM0 or COM3
	Port string

	// Baud is the serial baud rate, DefaultBaud when zero
	Baud int

	// URL is a ws:// or wss:// endpoint that receives each line as a text
	// message
	URL string

	// SkipTLSVerify disables certificate checks for wss://
	SkipTLSVerify bool
}

// Open opens the sink described by opts and returns it with a human
// readable description.
func Open(opts Options) (io.WriteCloser, string, error) {
	if opts.URL != "" {
		ws, err := DialWebSocket(opts.URL, opts.SkipTLSVerify)
		if err != nil {
			return nil, "", err
		}
		return ws, fmt.Sprintf("WebSocket: %s", opts.URL), nil
	}

	if opts.Port != "" {
		baud := opts.Baud
		if baud == 0 {
			baud = DefaultBaud
		}
		port, err := OpenSerial(opts.Port, baud)
		if err != nil {
			return nil, "", err
		}
		return port, fmt.Sprintf("Serial: %s @ %d baud", opts.Port, baud), nil
	}

	return Stdout(), "stdout", nil
}

// Stdout returns a sink writing to os.Stdout whose Close does not close
// stdout.
func Stdout() io.WriteCloser {
	return nopCloser{os.Stdout}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

// OpenSerial opens a serial port in 8N1 mode.
func OpenSerial(portName string, baudRate int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", portName)
	}
	return port, nil
}

// WebSocketSink sends every Write as one text message.
type WebSocketSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// DialWebSocket connects to a ws:// or wss:// endpoint.
func DialWebSocket(wsURL string, skipTLSVerify bool) (*WebSocketSink, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, errors.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipTLSVerify,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "WebSocket connection failed (HTTP %d)", resp.StatusCode)
		}
		return nil, errors.Wrap(err, "WebSocket connection failed")
	}
	return &WebSocketSink{conn: conn}, nil
}

func (w *WebSocketSink) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame and closes the connection.
func (w *WebSocketSink) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bootloader exit")
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return w.conn.Close()
}
