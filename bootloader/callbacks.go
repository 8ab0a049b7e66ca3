package bootloader

import "time"

// State is a state of the boot state machine.
//
//	INIT -> MOUNT_STORAGE -> SELECT_IMAGE -> [APPLY_UPDATE] -> HANDOFF
//	                  \-> RESET
//
// HANDOFF and RESET are terminal.
type State int

const (
	StateInit State = iota
	StateMountStorage
	StateSelectImage
	StateApplyUpdate
	StateHandoff
	StateReset
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateMountStorage:
		return "mount_storage"
	case StateSelectImage:
		return "select_image"
	case StateApplyUpdate:
		return "apply_update"
	case StateHandoff:
		return "handoff"
	case StateReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the bootloader run.
func (s State) Terminal() bool {
	return s == StateHandoff || s == StateReset
}

// Progress contains information about the boot progress.
// Passed to ProgressCallback on every state change and after every row.
type Progress struct {
	// State is the current state of the boot state machine
	State State

	// Slot is the slot being installed, empty outside APPLY_UPDATE
	Slot string

	// CurrentRow is the number of rows processed so far
	CurrentRow int

	// TotalRows is the number of rows that will be processed
	TotalRows int

	// FailedRows is the number of processed rows that failed
	FailedRows int

	// Percentage is the update completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesWritten is the number of bytes programmed successfully
	BytesWritten int

	// ElapsedTime is the time elapsed since the run started
	ElapsedTime time.Duration
}

// ProgressCallback is called during the boot to report progress.
// Implementations should return quickly to avoid delaying the boot.
type ProgressCallback func(Progress)

// Logger is the diagnostic log sink. Logging is best effort and never
// affects the boot. The console package provides an implementation.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// logger wraps an optional Logger.
type logger struct {
	l Logger
}

func (l logger) debug(msg string, keysAndValues ...interface{}) {
	if l.l != nil {
		l.l.Debug(msg, keysAndValues...)
	}
}

func (l logger) info(msg string, keysAndValues ...interface{}) {
	if l.l != nil {
		l.l.Info(msg, keysAndValues...)
	}
}

func (l logger) error(msg string, keysAndValues ...interface{}) {
	if l.l != nil {
		l.l.Error(msg, keysAndValues...)
	}
}
