package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-sdboot/firmware"
	"github.com/moffa90/go-sdboot/storage"
)

func newStageCmd(g *globalFlags) *cobra.Command {
	var (
		slotName string
		noMarker bool
	)

	cmd := &cobra.Command{
		Use:   "stage IMAGE",
		Short: "Copy an image to the card and request an update from its slot",
		Long: `Copy IMAGE to the card under the slot's image name and create the slot's
marker file, the way the external updater does. The next boot installs it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := firmware.ParseSlot(slotName)
			if err != nil {
				return err
			}
			cfg, ok := firmware.DefaultSlots.Lookup(slot)
			if !ok {
				return errors.Errorf("slot %s is not configured", slot)
			}

			image, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "read image")
			}

			fsys, err := storage.Dir{Root: g.card, SkipSelfTest: true}.Mount()
			if err != nil {
				return err
			}
			defer func() { _ = fsys.Unmount() }()

			if err := fsys.WriteFile(cfg.Image, image); err != nil {
				return err
			}
			if !noMarker {
				if err := fsys.WriteFile(cfg.Marker, nil); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Slot %s: %s (%d bytes)\n", slot, cfg.Image, len(image))
			if !noMarker {
				fmt.Fprintf(out, "Marker: %s\n", cfg.Marker)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&slotName, "slot", "s", "a", "Slot to stage (a or b)")
	cmd.Flags().BoolVar(&noMarker, "no-marker", false, "Copy the image without requesting an update")
	return cmd
}
