package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	projectDir string
	outputJSON bool
	plainOut   bool
	cliPath    string
)

// Execute runs the root cobra command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "arduinoctl",
		Short:         "Compile, upload and monitor Arduino sketches through arduino-cli",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&projectDir, "project", "", "Path to the sketch directory")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVar(&plainOut, "plain", false, "Disable interactive pickers and styling")
	cmd.PersistentFlags().StringVar(&cliPath, "cli", "", "Path to the arduino-cli binary (default $ARDUINOCTL_CLI or arduino-cli)")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newLibraryCmd())
	cmd.AddCommand(newBoardCmd())
	cmd.AddCommand(newPortCmd())
	cmd.AddCommand(newPortsCmd())
	cmd.AddCommand(newBaudCmd())
	cmd.AddCommand(newCompileCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newMonitorCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newWorkbenchCmd())

	return cmd
}
