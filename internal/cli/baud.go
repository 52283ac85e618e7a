package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"arduinoctl/internal/config"
	"arduinoctl/internal/tui"
)

func newBaudCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "baud [rate]",
		Short: "Show or set the serial monitor baud rate",
		Long: "With a rate argument, stores it as the monitor baud rate. Without one,\n" +
			"offers the standard rates in a picker, or prints the current rate.",
		Args: cobra.MaximumNArgs(1),
		RunE: runBaud,
	}
}

func runBaud(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	current := sess.store.Snapshot().BaudRate
	if len(args) == 1 {
		rate, err := config.ParseBaudRate(args[0])
		if err != nil {
			return err
		}
		return setBaud(cmd, sess.store, rate)
	}

	if !pickerMode(cmd) {
		if outputJSON {
			fmt.Fprintf(cmd.OutOrStdout(), "{\"baudrate\": %d}\n", current)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), current)
		return nil
	}

	choice, ok, err := tui.RunPicker(cmd.OutOrStdout(), "Baud rate", func() ([]tui.Choice, error) {
		return baudChoices(current), nil
	})
	if err != nil || !ok {
		return err
	}
	rate, err := config.ParseBaudRate(choice.Value)
	if err != nil {
		return err
	}
	return setBaud(cmd, sess.store, rate)
}

func baudChoices(current int) []tui.Choice {
	choices := make([]tui.Choice, 0, len(config.StandardBaudRates))
	for _, rate := range config.StandardBaudRates {
		status := ""
		if rate == current {
			status = "selected"
		}
		value := strconv.Itoa(rate)
		choices = append(choices, tui.Choice{Label: value, Value: value, Status: status})
	}
	return choices
}

func setBaud(cmd *cobra.Command, store *config.Store, rate int) error {
	if err := store.SetBaudRate(rate); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Baud rate set to %d\n", rate)
	if !config.IsStandardBaudRate(rate) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: baud rate %d is not a standard rate\n", rate)
	}
	return nil
}
