package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-sdboot/nvm"
	"github.com/moffa90/go-sdboot/sim"
)

func newInitCmd(g *globalFlags) *cobra.Command {
	var (
		appFile string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a blank simulated device and an empty card",
		Long: `Create a simulated device with an erased application region and an
empty card directory. With --app the given binary is installed as the
resident application, as a debug probe would.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(g.device); err == nil && !force {
				return errors.Errorf("%s already exists, use --force to overwrite", g.device)
			}

			layout := nvm.Layout{Base: nvm.AppBase, RowSize: nvm.RowSize, MaxRows: g.maxRows}
			if err := layout.Validate(); err != nil {
				return err
			}
			dev := sim.NewDevice(layout)

			if appFile != "" {
				app, err := os.ReadFile(appFile)
				if err != nil {
					return errors.Wrap(err, "read application")
				}
				if err := dev.InstallApplication(app); err != nil {
					return err
				}
			}

			if err := os.MkdirAll(g.card, 0o755); err != nil {
				return errors.Wrap(err, "create card directory")
			}
			if err := dev.SaveFile(g.device); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Device: %s (%s)\n", g.device, layout)
			fmt.Fprintf(out, "Card:   %s\n", g.card)
			if appFile != "" {
				fmt.Fprintf(out, "App:    %s installed\n", appFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&appFile, "app", "", "Binary installed as the resident application")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing device")
	return cmd
}
