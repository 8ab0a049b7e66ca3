package bootloader

import (
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-sdboot/firmware"
	"github.com/moffa90/go-sdboot/handoff"
	"github.com/moffa90/go-sdboot/integrity"
	"github.com/moffa90/go-sdboot/nvm"
	"github.com/moffa90/go-sdboot/storage"
)

// Report describes one bootloader run.
type Report struct {
	// Final is StateHandoff or StateReset
	Final State

	// MountErr is set when storage could not be mounted
	MountErr error

	// Decision is the image selection, zero when storage was not mounted
	Decision firmware.Decision

	// Result is the update outcome, nil when no update was attempted or the
	// image could not be opened
	Result *Result

	// UpdateErr is the collapsed update failure: an *firmware.OpenError or
	// an *UpdateError
	UpdateErr error

	// Vectors are the application vectors used for the handoff
	Vectors handoff.Vectors

	// DeinitErr collects failures while shutting down peripherals
	DeinitErr error

	Elapsed time.Duration
}

// Updated reports whether an update was attempted.
func (r *Report) Updated() bool {
	return r.Decision.Update()
}

// Bootloader runs the boot state machine: mount storage, select an image,
// install it if one was requested and hand off to the application.
type Bootloader struct {
	storage storage.Mounter
	driver  *nvm.Driver
	updater *Updater
	cpu     handoff.CPU
	config  Config
	log     logger
	start   time.Time
}

// New creates a bootloader.
//
// Example:
//
//	drv := nvm.NewDriver(flash, nvm.DefaultLayout)
//	v := integrity.NewVerifier(engine, integrity.NewFence(reg), drv)
//	bl := bootloader.New(storage.Dir{Root: "/mnt/sd"}, drv, v, cpu,
//	    bootloader.WithLogger(log),
//	    bootloader.WithPeripherals(consoleSink),
//	)
//	bl.Run() // returns only on simulated targets
func New(mounter storage.Mounter, driver *nvm.Driver, verifier *integrity.Verifier, cpu handoff.CPU, opts ...Option) *Bootloader {
	if mounter == nil || driver == nil || verifier == nil || cpu == nil {
		panic("mounter, driver, verifier and cpu cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Bootloader{
		storage: mounter,
		driver:  driver,
		updater: newUpdater(driver, verifier, cfg),
		cpu:     cpu,
		config:  cfg,
		log:     logger{cfg.Logger},
	}
}

// Run performs one boot. It ends either by handing control to the
// application or by resetting the device. A reset follows a storage mount
// failure, or an application vector table that cannot be read: flash that
// cannot be read cannot be booted either.
// On hardware neither returns; on simulated targets Run returns a Report of
// what happened.
func (b *Bootloader) Run() *Report {
	b.start = time.Now()
	rep := &Report{}
	defer func() { rep.Elapsed = time.Since(b.start) }()

	b.enter(StateInit)
	b.log.info("enter bootloader", "layout", b.driver.Layout().String())

	b.enter(StateMountStorage)
	fsys, err := b.storage.Mount()
	if err != nil {
		rep.MountErr = err
		rep.Final = StateReset
		b.log.error("storage mount failed, system will restart",
			"delay", b.config.ResetDelay.String(),
			"error", err,
		)
		b.enter(StateReset)
		b.config.Sleep(b.config.ResetDelay)
		b.cpu.SystemReset()
		return rep
	}
	b.log.info("storage mounted")

	b.enter(StateSelectImage)
	rep.Decision = firmware.NewSelector(fsys, b.config.Slots).Select()
	b.logDecision(rep.Decision)

	if rep.Decision.Update() {
		b.enter(StateApplyUpdate)
		rep.Result, rep.UpdateErr = b.update(fsys, *rep.Decision.Slot)
		if rep.UpdateErr == nil {
			b.log.info("updated firmware successfully", "slot", rep.Decision.Slot.Slot.String())
		} else {
			b.log.error("unsuccessful in updating firmware",
				"slot", rep.Decision.Slot.Slot.String(),
				"error", rep.UpdateErr,
			)
		}
	}

	b.handoff(fsys, rep)
	return rep
}

// update opens the selected image and applies it.
func (b *Bootloader) update(fsys storage.FS, slot firmware.SlotConfig) (*Result, error) {
	img, err := firmware.Open(fsys, slot, b.driver.Layout().RowSize)
	if err != nil {
		b.log.error("could not open image", "slot", slot.Slot.String(), "file", slot.Image, "error", err)
		return nil, err
	}
	defer func() {
		if err := img.Close(); err != nil {
			b.log.error("close image", "file", slot.Image, "error", err)
		}
	}()

	res := b.updater.Apply(img)
	return res, res.Err()
}

// handoff shuts down peripherals and transfers control to the application.
func (b *Bootloader) handoff(fsys storage.FS, rep *Report) {
	vectors, err := handoff.ReadVectors(b.driver)
	if err != nil {
		// flash that cannot be read cannot be booted either
		rep.Final = StateReset
		b.enter(StateReset)
		b.log.error("cannot read application vectors, resetting", "error", err)
		b.config.Sleep(b.config.FlushDelay)
		rep.DeinitErr = b.deinit(fsys)
		b.cpu.SystemReset()
		return
	}

	rep.Vectors = vectors
	rep.Final = StateHandoff
	b.enter(StateHandoff)
	if vectors.Erased() {
		b.log.error("no application installed, jumping anyway", "vectors", vectors.String())
	}
	b.log.info("exit bootloader",
		"base", fmt.Sprintf("0x%08X", b.driver.Layout().Base),
		"vectors", vectors.String(),
	)
	b.config.Sleep(b.config.FlushDelay)

	// the console may be among the peripherals, nothing is logged past here
	rep.DeinitErr = b.deinit(fsys)
	handoff.Jump(b.cpu, b.driver.Layout().Base, vectors)
}

// deinit unmounts storage and closes the registered peripherals.
func (b *Bootloader) deinit(fsys storage.FS) error {
	var errs []error
	if err := fsys.Unmount(); err != nil {
		errs = append(errs, fmt.Errorf("unmount storage: %w", err))
	}
	for _, p := range b.config.Peripherals {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bootloader) logDecision(d firmware.Decision) {
	for _, p := range d.Probes {
		if p.Err != nil {
			b.log.debug("marker probe failed, treated as absent", "slot", p.Slot.String(), "marker", p.Marker, "error", p.Err)
		}
	}

	if !d.Update() {
		b.log.info("no update requested")
		return
	}

	b.log.info("update requested", "slot", d.Slot.Slot.String(), "marker", d.Slot.Marker)
	if d.RemoveErr != nil {
		b.log.error("could not delete marker", "marker", d.Slot.Marker, "error", d.RemoveErr)
	}
}

// enter reports a state change.
func (b *Bootloader) enter(state State) {
	b.log.debug("state", "state", state.String())
	if b.config.ProgressCallback != nil {
		b.config.ProgressCallback(Progress{
			State:       state,
			ElapsedTime: time.Since(b.start),
		})
	}
}
