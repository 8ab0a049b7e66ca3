package sim

import (
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/moffa90/go-sdboot/integrity"
	"github.com/moffa90/go-sdboot/nvm"
)

const snapshotVersion = 1

// Device is a complete simulated target.
type Device struct {
	Layout nvm.Layout
	Flash  *Flash
	Fence  *Register
	CPU    *CPU
}

// NewDevice returns a device with erased application flash.
func NewDevice(layout nvm.Layout) *Device {
	return &Device{
		Layout: layout,
		Flash:  NewFlash(layout),
		Fence:  NewRegister(DefaultFenceValue),
		CPU:    &CPU{},
	}
}

// Driver returns an NVM driver for the device flash.
func (d *Device) Driver() *nvm.Driver {
	return nvm.NewDriver(d.Flash, d.Layout)
}

// Verifier returns a verifier using the software CRC engine behind the
// device's fence register.
func (d *Device) Verifier(rows integrity.RowReader) *integrity.Verifier {
	return integrity.NewVerifier(integrity.SoftwareEngine{}, integrity.NewFence(d.Fence), rows)
}

// InstallApplication writes image into the application region directly, as
// a programmer connected to the debug port would.
func (d *Device) InstallApplication(image []byte) error {
	if len(image) > d.Layout.Size() {
		return errors.Errorf("image of %d bytes does not fit the %d byte region", len(image), d.Layout.Size())
	}
	return d.Flash.Load(d.Layout.Base, image)
}

// snapshot is the persisted form of a Device.
type snapshot struct {
	Version int      `cbor:"1,keyasint"`
	Base    uint32   `cbor:"2,keyasint"`
	RowSize int      `cbor:"3,keyasint"`
	MaxRows int      `cbor:"4,keyasint"`
	Memory  []byte   `cbor:"5,keyasint"`
	Fence   uint32   `cbor:"6,keyasint"`
	CPU     CPUState `cbor:"7,keyasint"`
}

// Save writes the device state as CBOR. Injected faults are not saved.
func (d *Device) Save(w io.Writer) error {
	d.Flash.mu.Lock()
	snap := snapshot{
		Version: snapshotVersion,
		Base:    d.Layout.Base,
		RowSize: d.Layout.RowSize,
		MaxRows: d.Layout.MaxRows,
		Memory:  d.Flash.mem,
		Fence:   d.Fence.Get(),
		CPU:     d.CPU.State(),
	}
	data, err := cbor.Marshal(snap)
	d.Flash.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "encode device snapshot")
	}

	_, err = w.Write(data)
	return errors.Wrap(err, "write device snapshot")
}

// Load reads a device saved with Save.
func Load(r io.Reader) (*Device, error) {
	var snap snapshot
	if err := cbor.NewDecoder(r).Decode(&snap); err != nil {
		return nil, errors.Wrap(err, "decode device snapshot")
	}
	if snap.Version != snapshotVersion {
		return nil, errors.Errorf("unsupported snapshot version %d", snap.Version)
	}

	layout := nvm.Layout{Base: snap.Base, RowSize: snap.RowSize, MaxRows: snap.MaxRows}
	if err := layout.Validate(); err != nil {
		return nil, errors.Wrap(err, "snapshot layout")
	}
	if len(snap.Memory) != int(layout.End()) {
		return nil, errors.Errorf("snapshot holds %d bytes of memory, layout needs %d", len(snap.Memory), layout.End())
	}

	return &Device{
		Layout: layout,
		Flash:  newFlash(layout, snap.Memory),
		Fence:  NewRegister(snap.Fence),
		CPU:    &CPU{state: snap.CPU},
	}, nil
}

// SaveFile writes the device state to path.
func (d *Device) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create device file")
	}
	if err := d.Save(f); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close device file")
}

// LoadFile reads a device from path.
func LoadFile(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open device file")
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}
