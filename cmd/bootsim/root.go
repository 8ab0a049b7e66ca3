package main

import (
	"github.com/spf13/cobra"

	"github.com/moffa90/go-sdboot/console"
	"github.com/moffa90/go-sdboot/nvm"
)

// globalFlags are the persistent flags shared by all commands.
type globalFlags struct {
	device string
	card   string

	// console sink
	portName      string
	baudRate      int
	wsURL         string
	wsNoSSLVerify bool
	logLevel      string

	maxRows int
}

func (g *globalFlags) consoleOptions() console.Options {
	return console.Options{
		Port:          g.portName,
		Baud:          g.baudRate,
		URL:           g.wsURL,
		SkipTLSVerify: g.wsNoSSLVerify,
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "bootsim",
		Short: "SD card bootloader simulator",
		Long: `bootsim runs the SD card bootloader against a simulated SAM D21 class device.

The device (flash contents, fence register, CPU state) is kept in a CBOR
snapshot file between commands. A host directory stands in for the SD card.

Typical session:
  bootsim init --app resident.bin     create a blank device with an application
  bootsim stage --slot a update.bin   place an update and its marker on the card
  bootsim boot                        run one boot
  bootsim dump --row 0                inspect the flashed rows

Console output:
  stdout (default)
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path`,
		SilenceUsage: true,
		Version:      "1.0.0",
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.device, "device", "d", "device.cbor", "Simulated device snapshot file")
	pf.StringVarP(&g.card, "card", "c", "sdcard", "Directory used as the SD card volume")
	pf.StringVarP(&g.portName, "port", "p", "", "Serial port receiving the console log")
	pf.IntVarP(&g.baudRate, "baud", "b", console.DefaultBaud, "Baud rate (serial only)")
	pf.StringVarP(&g.wsURL, "url", "u", "", "WebSocket URL receiving the console log (ws:// or wss://)")
	pf.BoolVar(&g.wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
	pf.StringVar(&g.logLevel, "log-level", "debug", "Console log level (debug, info, error)")
	pf.IntVar(&g.maxRows, "max-rows", nvm.MaxRows, "Rows in the application region")

	root.AddCommand(
		newInitCmd(g),
		newStageCmd(g),
		newBootCmd(g),
		newDumpCmd(g),
	)
	return root
}
