// Package sim provides a simulated bootloader target: NOR flash held in RAM,
// the CRC fence register and a CPU that records the handoff instead of
// performing it.
//
// The flash behaves like the real part where it matters to the bootloader:
// erase sets a row to 0xFF, programming can only clear bits, addresses below
// the application base are write-protected, and erase/program failures and
// stuck bits can be injected per address.
//
// A Device bundles all three and can be persisted as CBOR so host tools can
// run boot after boot against the same memory:
//
//	dev := sim.NewDevice(nvm.DefaultLayout)
//	if err := dev.SaveFile("device.cbor"); err != nil {
//	    log.Fatal(err)
//	}
package sim
