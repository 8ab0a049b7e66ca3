package bootloader

import (
	"io"
	"time"

	"github.com/moffa90/go-sdboot/firmware"
)

// Config holds the bootloader configuration.
type Config struct {
	// ProgressCallback is called on state changes and after every row (optional)
	ProgressCallback ProgressCallback

	// Logger receives the diagnostic log (optional)
	Logger Logger

	// MaxRows is the number of rows processed per image. It is capped by the
	// driver layout's MaxRows. Zero means the layout's MaxRows.
	MaxRows int

	// RowsFromImageSize derives the row count from the image size instead of
	// always processing MaxRows rows. MaxRows still caps the count.
	RowsFromImageSize bool

	// StopOnFailure aborts an update at the first row that fails
	StopOnFailure bool

	// Slots lists the candidate images in priority order
	Slots firmware.Slots

	// ResetDelay is the wait between a storage mount failure and the reset
	ResetDelay time.Duration

	// FlushDelay is the wait that lets the console drain before peripherals
	// are shut down for the handoff
	FlushDelay time.Duration

	// Peripherals are closed, in order, right before the handoff
	Peripherals []io.Closer

	// Sleep blocks for the given duration
	Sleep func(time.Duration)
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Slots:      firmware.DefaultSlots,
		ResetDelay: 5 * time.Second,
		FlushDelay: 100 * time.Millisecond,
		Sleep:      time.Sleep,
	}
}

// Option is a functional option for configuring the Bootloader and Updater.
type Option func(*Config)

// WithProgressCallback sets a callback function to track boot progress.
//
// Example:
//
//	bl := bootloader.New(mounter, drv, verifier, cpu,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %.1f%% - Row %d/%d\n",
//	            p.State, p.Percentage, p.CurrentRow, p.TotalRows)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets the diagnostic log sink.
//
// Example:
//
//	bl := bootloader.New(mounter, drv, verifier, cpu, bootloader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMaxRows sets the number of rows processed per image.
//
// Example:
//
//	u := bootloader.NewUpdater(drv, verifier, bootloader.WithMaxRows(10))
func WithMaxRows(rows int) Option {
	return func(c *Config) {
		if rows >= 0 {
			c.MaxRows = rows
		}
	}
}

// WithRowsFromImageSize makes the updater process only as many rows as the
// image needs. By default a fixed number of rows is processed regardless of
// the image size, which pads short images with erased rows and truncates
// oversized ones.
func WithRowsFromImageSize(enable bool) Option {
	return func(c *Config) {
		c.RowsFromImageSize = enable
	}
}

// WithStopOnFailure makes the updater abort at the first failed row. By
// default every row is attempted.
func WithStopOnFailure(enable bool) Option {
	return func(c *Config) {
		c.StopOnFailure = enable
	}
}

// WithSlots sets the candidate images in priority order.
func WithSlots(slots firmware.Slots) Option {
	return func(c *Config) {
		c.Slots = slots
	}
}

// WithResetDelay sets the wait before resetting after a mount failure.
// Default is 5 seconds.
func WithResetDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.ResetDelay = d
		}
	}
}

// WithFlushDelay sets the wait before peripherals are shut down for the
// handoff. Default is 100ms.
func WithFlushDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.FlushDelay = d
		}
	}
}

// WithPeripherals registers peripherals, such as the console, that must be
// shut down before the handoff. They are closed in the given order, after
// the storage volume is unmounted.
func WithPeripherals(closers ...io.Closer) Option {
	return func(c *Config) {
		c.Peripherals = append(c.Peripherals, closers...)
	}
}

// WithSleep replaces time.Sleep, mostly for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Config) {
		if sleep != nil {
			c.Sleep = sleep
		}
	}
}
