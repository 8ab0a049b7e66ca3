package main

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-sdboot/handoff"
	"github.com/moffa90/go-sdboot/nvm"
	"github.com/moffa90/go-sdboot/sim"
)

func newDumpCmd(g *globalFlags) *cobra.Command {
	var (
		first   int
		count   int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print rows of the simulated application region",
		Long: `Print the vector table, the CPU state and a range of rows of the simulated
device together with each row's CRC32. Erased rows are summarized unless
--verbose is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := sim.LoadFile(g.device)
			if err != nil {
				return err
			}
			layout := dev.Layout
			if !layout.Contains(first) {
				return errors.Errorf("row %d outside [0, %d)", first, layout.MaxRows)
			}
			if count <= 0 || first+count > layout.MaxRows {
				count = layout.MaxRows - first
			}

			drv := dev.Driver()
			v := dev.Verifier(drv)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Layout:  %s\n", layout)
			if vec, err := handoff.ReadVectors(drv); err == nil {
				fmt.Fprintf(out, "Vectors: %s\n", vec)
			}
			st := dev.CPU.State()
			fmt.Fprintf(out, "CPU:     VTOR=0x%08X SP=0x%08X PC=0x%08X handoffs=%d resets=%d\n",
				st.VTOR, st.SP, st.PC, st.Handoffs, st.Resets)
			fmt.Fprintf(out, "Fence:   0x%08X\n\n", dev.Fence.Get())

			for row := first; row < first+count; row++ {
				data, err := drv.Read(row)
				if err != nil {
					return err
				}
				sum, err := v.Checksum(data)
				if err != nil {
					return err
				}

				r := nvm.Row{Number: row, Data: data}
				erased := r.Erased()
				state := ""
				if erased {
					state = " erased"
				}
				fmt.Fprintf(out, "Row %d @ 0x%08X crc=0x%08X%s\n", row, layout.Addr(row), sum, state)
				if !erased || verbose {
					fmt.Fprint(out, hex.Dump(data))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&first, "row", "r", 0, "First row")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of rows, 0 for all remaining")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also dump erased rows")
	return cmd
}
