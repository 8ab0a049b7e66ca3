// Package console is the bootloader's diagnostic output.
//
// A Logger formats log lines with logrus and writes them to a sink: the
// process's stdout, a serial port (the UART console of the reference board)
// or a WebSocket bridge that forwards the console of a remote bench.
//
//	sink, desc, err := console.Open(console.Options{Port: "/dev/ttyACM0", Baud: 115200})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger, err := console.New(sink, "info")
//	...
//	bl := bootloader.New(card, drv, v, cpu,
//	    bootloader.WithLogger(logger),
//	    bootloader.WithPeripherals(logger),
//	)
//
// The Logger is also an io.Closer: the bootloader closes it with the other
// peripherals right before the handoff, after which it discards output.
package console
