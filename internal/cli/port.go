package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"arduinoctl/internal/config"
	"arduinoctl/internal/runner"
	"arduinoctl/internal/toolchain"
	"arduinoctl/internal/tui"
)

const noPortsMessage = "no connected boards found"

func newPortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "port",
		Short: "Pick the serial port of a connected board",
		Args:  cobra.NoArgs,
		RunE:  runPortPicker,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <port>",
		Short: "Set the serial port by address",
		Args:  cobra.ExactArgs(1),
		RunE:  runPortSet,
	})
	return cmd
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List detected serial ports and the boards matched to them",
		Args:  cobra.NoArgs,
		RunE:  runPortsList,
	}
}

func runPortSet(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()
	return setPort(cmd, sess.store, args[0])
}

func setPort(cmd *cobra.Command, store *config.Store, port string) error {
	if err := store.SetPort(port); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Port set to %s\n", store.Snapshot().Port)
	return nil
}

func fetchPorts(ctx context.Context, cli toolchain.CLI) ([]toolchain.Port, error) {
	res, err := newRunner().Run(ctx, cli.Binary(), cli.PortsArgs(), runner.RunOptions{})
	if err != nil {
		return nil, fmt.Errorf("list ports: %w: %s", err, strings.TrimSpace(string(res.Stderr)))
	}
	ports, err := toolchain.DecodePorts(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("decode ports: %w", err)
	}
	return ports, nil
}

func runPortsList(cmd *cobra.Command, _ []string) error {
	cli := toolchain.Resolve(cliPath)
	var ports []toolchain.Port
	err := withSpinner(cmd, "Detecting ports", func() error {
		var listErr error
		ports, listErr = fetchPorts(commandContext(cmd), cli)
		return listErr
	})
	if err != nil {
		return err
	}

	if outputJSON {
		if ports == nil {
			ports = []toolchain.Port{}
		}
		data, err := json.MarshalIndent(ports, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(ports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), noPortsMessage)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "PORT\tPROTOCOL\tBOARDS")
	for _, p := range ports {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Address, tui.NonEmptyOrDash(p.ProtocolLabel), tui.NonEmptyOrDash(p.BoardNames()))
	}
	return w.Flush()
}

func runPortPicker(cmd *cobra.Command, _ []string) error {
	if !pickerMode(cmd) {
		return runPortsList(cmd, nil)
	}

	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	var ports []toolchain.Port
	err = withSpinner(cmd, "Detecting ports", func() error {
		var listErr error
		ports, listErr = fetchPorts(commandContext(cmd), sess.cli)
		return listErr
	})
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), noPortsMessage)
		return nil
	}

	current := sess.store.Snapshot().Port
	choices := make([]tui.Choice, 0, len(ports))
	for _, p := range ports {
		status := ""
		if p.Address == current {
			status = "selected"
		}
		label := p.Address
		if names := p.BoardNames(); names != "" {
			label = fmt.Sprintf("%s (%s)", p.Address, names)
		}
		choices = append(choices, tui.Choice{Label: label, Detail: p.ProtocolLabel, Value: p.Address, Status: status})
	}

	choice, ok, err := tui.RunPicker(cmd.OutOrStdout(), "Ports", func() ([]tui.Choice, error) {
		return choices, nil
	})
	if err != nil || !ok {
		return err
	}
	return setPort(cmd, sess.store, choice.Value)
}
