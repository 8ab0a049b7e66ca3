package main

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/moffa90/go-sdboot/bootloader"
	"github.com/moffa90/go-sdboot/console"
	"github.com/moffa90/go-sdboot/sim"
	"github.com/moffa90/go-sdboot/storage"
)

type bootFlags struct {
	tui               bool
	rowsFromImageSize bool
	stopOnFailure     bool
	skipSelfTest      bool
	resetDelay        time.Duration
	flushDelay        time.Duration
}

func newBootCmd(g *globalFlags) *cobra.Command {
	f := &bootFlags{}

	cmd := &cobra.Command{
		Use:   "boot",
		Short: "Run one boot of the simulated device",
		Long: `Power the simulated device on and run the bootloader once: mount the card,
select an image, install it if a marker is present and hand off to the
application. The device snapshot is updated afterwards.

With --tui the boot is shown as a live progress view (terminal only).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoot(cmd.OutOrStdout(), g, f)
		},
	}

	fl := cmd.Flags()
	fl.BoolVar(&f.tui, "tui", false, "Show a live progress view")
	fl.BoolVar(&f.rowsFromImageSize, "rows-from-image", false, "Only flash the rows the image occupies")
	fl.BoolVar(&f.stopOnFailure, "stop-on-failure", false, "Abort the update at the first failed row")
	fl.BoolVar(&f.skipSelfTest, "skip-self-test", false, "Do not write the card self-test files on mount")
	fl.DurationVar(&f.resetDelay, "reset-delay", 5*time.Second, "Wait before resetting after a mount failure")
	fl.DurationVar(&f.flushDelay, "flush-delay", 100*time.Millisecond, "Wait before shutting the console down for the handoff")
	return cmd
}

func runBoot(out io.Writer, g *globalFlags, f *bootFlags) error {
	dev, err := sim.LoadFile(g.device)
	if err != nil {
		return err
	}

	sink, desc, err := console.Open(g.consoleOptions())
	if err != nil {
		return err
	}
	stdoutTTY := term.IsTerminal(int(os.Stdout.Fd()))

	var prog *tea.Program
	logSink := sink
	if f.tui {
		if !stdoutTTY {
			_ = sink.Close()
			return errors.New("--tui needs a terminal")
		}
		prog = tea.NewProgram(newBootModel(g.device, desc))
		if desc == "stdout" {
			logSink = &teaWriter{p: prog}
		}
	}

	logger, err := console.New(logSink, g.logLevel)
	if err != nil {
		_ = sink.Close()
		return err
	}
	defer func() { _ = logger.Close() }()
	if prog == nil && desc == "stdout" && stdoutTTY {
		logger.SetColors(true)
	}
	if desc != "stdout" {
		fmt.Fprintf(out, "Console: %s\n", desc)
	}

	drv := dev.Driver()
	opts := []bootloader.Option{
		bootloader.WithLogger(logger),
		bootloader.WithPeripherals(logger),
		bootloader.WithMaxRows(g.maxRows),
		bootloader.WithRowsFromImageSize(f.rowsFromImageSize),
		bootloader.WithStopOnFailure(f.stopOnFailure),
		bootloader.WithResetDelay(f.resetDelay),
		bootloader.WithFlushDelay(f.flushDelay),
	}
	if prog != nil {
		opts = append(opts, bootloader.WithProgressCallback(func(p bootloader.Progress) {
			prog.Send(progressMsg(p))
		}))
	}

	bl := bootloader.New(storage.Dir{Root: g.card, SkipSelfTest: f.skipSelfTest}, drv, dev.Verifier(drv), dev.CPU, opts...)

	var (
		rep     *bootloader.Report
		viewErr error
	)
	if prog != nil {
		rep, viewErr = runUnderView(prog, bl.Run)
	} else {
		rep = bl.Run()
	}

	if err := dev.SaveFile(g.device); err != nil {
		return err
	}
	printReport(out, rep, dev)
	return viewErr
}

// liveView is the part of *tea.Program a boot is shown in.
type liveView interface {
	Run() (tea.Model, error)
	Send(msg tea.Msg)
}

// runUnderView runs boot in the background while view is shown. It waits for
// the boot to finish even when the view fails.
func runUnderView(view liveView, boot func() *bootloader.Report) (*bootloader.Report, error) {
	done := make(chan *bootloader.Report, 1)
	go func() {
		r := boot()
		view.Send(doneMsg{report: r})
		done <- r
	}()

	_, err := view.Run()
	rep := <-done
	return rep, errors.Wrap(err, "tui")
}

func printReport(w io.Writer, rep *bootloader.Report, dev *sim.Device) {
	fmt.Fprintf(w, "\nBoot finished: %s (%s)\n", rep.Final, rep.Elapsed.Round(time.Millisecond))

	switch {
	case rep.MountErr != nil:
		fmt.Fprintf(w, "  Storage:  %v\n", rep.MountErr)
	case !rep.Updated():
		fmt.Fprintf(w, "  Update:   none requested\n")
	case rep.Result == nil:
		fmt.Fprintf(w, "  Update:   slot %s, %v\n", rep.Decision.Slot.Slot, rep.UpdateErr)
	default:
		res := rep.Result
		fmt.Fprintf(w, "  Update:   slot %s, %d bytes, %d/%d rows, %d failed\n",
			res.Slot, res.ImageSize, len(res.Rows), res.TotalRows, len(res.FailedRows()))
		if failed := res.FailedRows(); len(failed) > 0 {
			fmt.Fprintf(w, "  Failed:   %v\n", failed)
		}
	}
	if rep.Decision.RemoveErr != nil {
		fmt.Fprintf(w, "  Marker:   %v\n", rep.Decision.RemoveErr)
	}
	if rep.DeinitErr != nil {
		fmt.Fprintf(w, "  Deinit:   %v\n", rep.DeinitErr)
	}

	st := dev.CPU.State()
	if rep.Final == bootloader.StateHandoff {
		fmt.Fprintf(w, "  Vectors:  %s\n", rep.Vectors)
	}
	fmt.Fprintf(w, "  CPU:      VTOR=0x%08X SP=0x%08X PC=0x%08X handoffs=%d resets=%d\n",
		st.VTOR, st.SP, st.PC, st.Handoffs, st.Resets)
}
