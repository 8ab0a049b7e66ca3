package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Logger is a logrus-backed implementation of bootloader.Logger.
type Logger struct {
	mu     sync.Mutex
	log    *logrus.Logger
	sink   io.Writer
	closed bool
}

// New creates a logger writing to sink at the given level ("debug", "info",
// "error", ...).
func New(sink io.Writer, level string) (*Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}

	l := logrus.New()
	l.SetOutput(sink)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		TimestampFormat:  "15:04:05.000",
		DisableColors:    true,
		QuoteEmptyFields: true,
	})

	return &Logger{log: l, sink: sink}, nil
}

// SetColors turns colored level names on or off, typically after checking
// that the sink is a terminal.
func (l *Logger) SetColors(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.log.Formatter.(*logrus.TextFormatter); ok {
		f.DisableColors = !enable
		f.ForceColors = enable
	}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Debug(msg)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Info(msg)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Error(msg)
}

// Close flushes nothing, discards all further output and closes the sink if
// it is an io.Closer. It is safe to call more than once.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.log.SetOutput(io.Discard)

	if c, ok := l.sink.(io.Closer); ok {
		return errors.Wrap(c.Close(), "close console")
	}
	return nil
}

func (l *Logger) entry(keysAndValues []interface{}) *logrus.Entry {
	return l.log.WithFields(fields(keysAndValues))
}

// fields turns alternating keys and values into logrus fields. A trailing
// key without a value is kept with a nil value.
func fields(keysAndValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		if i+1 < len(keysAndValues) {
			f[key] = keysAndValues[i+1]
		} else {
			f[key] = nil
		}
	}
	return f
}
