package bootloader

import (
	"errors"
	"time"

	"github.com/moffa90/go-sdboot/firmware"
	"github.com/moffa90/go-sdboot/integrity"
	"github.com/moffa90/go-sdboot/nvm"
)

// Updater installs an image into the application region row by row.
type Updater struct {
	driver   *nvm.Driver
	verifier *integrity.Verifier
	config   Config
	log      logger
}

// NewUpdater creates an updater writing through driver and checking every
// row with verifier.
//
// Example:
//
//	drv := nvm.NewDriver(flash, nvm.DefaultLayout)
//	v := integrity.NewVerifier(integrity.SoftwareEngine{}, integrity.NewFence(reg), drv)
//	u := bootloader.NewUpdater(drv, v, bootloader.WithLogger(myLogger))
func NewUpdater(driver *nvm.Driver, verifier *integrity.Verifier, opts ...Option) *Updater {
	if driver == nil || verifier == nil {
		panic("driver and verifier cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return newUpdater(driver, verifier, cfg)
}

func newUpdater(driver *nvm.Driver, verifier *integrity.Verifier, cfg Config) *Updater {
	return &Updater{
		driver:   driver,
		verifier: verifier,
		config:   cfg,
		log:      logger{cfg.Logger},
	}
}

// RowCount returns the number of rows Apply processes for img.
func (u *Updater) RowCount(img *firmware.Image) int {
	limit := u.driver.Layout().MaxRows
	if u.config.MaxRows > 0 && u.config.MaxRows < limit {
		limit = u.config.MaxRows
	}
	if u.config.RowsFromImageSize && img.Rows() < limit {
		return img.Rows()
	}
	return limit
}

// Apply installs img. For every row it reads the next row of the image,
// erases the row, programs it and verifies it against the image bytes.
//
// A failing step does not stop the loop unless StopOnFailure is set: every
// row is attempted and the failures are collected in the Result. The caller
// owns img and closes it.
func (u *Updater) Apply(img *firmware.Image) *Result {
	start := time.Now()
	total := u.RowCount(img)
	res := &Result{
		Slot:      img.Slot.Slot.String(),
		ImageSize: img.Size(),
		TotalRows: total,
		Rows:      make([]RowResult, 0, total),
	}

	u.log.info("flashing image",
		"slot", res.Slot,
		"file", img.Slot.Image,
		"size", res.ImageSize,
		"rows", total,
	)
	if total == 0 {
		u.log.error("image is empty, nothing flashed", "slot", res.Slot, "file", img.Slot.Image)
	}
	if res.ImageSize > int64(total*u.driver.Layout().RowSize) {
		u.log.error("image larger than the rows processed, tail is not flashed",
			"size", res.ImageSize,
			"rows", total,
		)
	}

	bytesWritten, failed := 0, 0
	for i := 0; i < total; i++ {
		rr := u.applyRow(img)
		res.Rows = append(res.Rows, rr)
		if rr.ProgramErr == nil {
			bytesWritten += u.driver.Layout().RowSize
		}
		if !rr.OK() {
			failed++
		}

		u.reportProgress(Progress{
			State:        StateApplyUpdate,
			Slot:         res.Slot,
			CurrentRow:   i + 1,
			TotalRows:    total,
			FailedRows:   failed,
			Percentage:   float64(i+1) / float64(total) * 100,
			BytesWritten: bytesWritten,
			ElapsedTime:  time.Since(start),
		})

		if !rr.OK() && u.config.StopOnFailure {
			res.Aborted = true
			u.log.error("aborting update", "row", rr.Row)
			break
		}
	}

	res.Elapsed = time.Since(start)
	u.log.info("flashing finished",
		"slot", res.Slot,
		"rows", len(res.Rows),
		"failed", len(res.FailedRows()),
		"short_reads", res.ShortReads(),
		"elapsed", res.Elapsed.String(),
	)
	return res
}

// applyRow runs the read, erase, program, verify pipeline for the next row.
func (u *Updater) applyRow(img *firmware.Image) RowResult {
	row, err := img.NextRow()
	var short *nvm.ShortReadError
	switch {
	case err == nil:
	case errors.As(err, &short):
		return u.flashRow(row, RowResult{Row: row.Number, ShortRead: err})
	default:
		// the cursor advanced anyway, the row is flashed erased
		rr := RowResult{Row: img.Cursor() - 1, ReadErr: err}
		u.log.error("image read failed", "row", rr.Row, "error", err)
		return u.flashRow(nvm.NewRow(rr.Row, u.driver.Layout().RowSize), rr)
	}
	return u.flashRow(row, RowResult{Row: row.Number})
}

func (u *Updater) flashRow(row *nvm.Row, rr RowResult) RowResult {
	if rr.ShortRead != nil {
		u.log.info("short read, row padded", "row", row.Number, "error", rr.ShortRead)
	}

	if rr.EraseErr = u.driver.Erase(row.Number); rr.EraseErr != nil {
		u.log.error("error while erasing row", "row", row.Number, "error", rr.EraseErr)
	} else {
		u.log.debug("row erased", "row", row.Number)
	}

	var eraseCmd *nvm.EraseError
	if errors.As(rr.EraseErr, &eraseCmd) {
		rr.ProgramErr = ErrProgramSkipped
		u.log.error("row not programmed", "row", row.Number, "error", rr.ProgramErr)
	} else if rr.ProgramErr = u.driver.Program(row.Number, row.Data); rr.ProgramErr != nil {
		u.log.error("failed to write row", "row", row.Number, "error", rr.ProgramErr)
	} else {
		u.log.debug("row written", "row", row.Number)
	}

	if rr.VerifyErr = u.verifier.VerifyRow(row.Data, row.Number); rr.VerifyErr != nil {
		u.log.error("crc check failed", "row", row.Number, "error", rr.VerifyErr)
	} else {
		u.log.debug("crc passed", "row", row.Number)
	}

	return rr
}

// reportProgress calls the progress callback if configured.
func (u *Updater) reportProgress(progress Progress) {
	if u.config.ProgressCallback != nil {
		u.config.ProgressCallback(progress)
	}
}
