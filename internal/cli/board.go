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

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Pick the target board from the installed board catalogue",
		Args:  cobra.NoArgs,
		RunE:  runBoardPicker,
	}
	cmd.AddCommand(newBoardSetCmd(), newBoardListCmd())
	return cmd
}

func newBoardSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <fqbn>",
		Short: "Set the target board by fully qualified board name",
		Args:  cobra.ExactArgs(1),
		RunE:  runBoardSet,
	}
}

func newBoardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed boards",
		Args:  cobra.NoArgs,
		RunE:  runBoardList,
	}
}

func runBoardSet(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()
	return setBoard(cmd, sess.store, args[0])
}

func setBoard(cmd *cobra.Command, store *config.Store, fqbn string) error {
	if err := store.SetBoard(fqbn); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Board set to %s\n", store.Snapshot().Board)
	return nil
}

func listBoards(cmd *cobra.Command, cli toolchain.CLI) ([]toolchain.Board, error) {
	var boards []toolchain.Board
	err := withSpinner(cmd, "Listing boards", func() error {
		var listErr error
		boards, listErr = fetchBoards(commandContext(cmd), cli)
		return listErr
	})
	return boards, err
}

func fetchBoards(ctx context.Context, cli toolchain.CLI) ([]toolchain.Board, error) {
	res, err := newRunner().Run(ctx, cli.Binary(), cli.BoardsArgs(), runner.RunOptions{})
	if err != nil {
		return nil, fmt.Errorf("list boards: %w: %s", err, strings.TrimSpace(string(res.Stderr)))
	}
	boards, err := toolchain.DecodeBoards(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("decode boards: %w", err)
	}
	return boards, nil
}

func runBoardList(cmd *cobra.Command, _ []string) error {
	boards, err := listBoards(cmd, toolchain.Resolve(cliPath))
	if err != nil {
		return err
	}

	if outputJSON {
		data, err := json.MarshalIndent(boards, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFQBN")
	for _, b := range boards {
		fmt.Fprintf(w, "%s\t%s\n", b.Name, b.FQBN)
	}
	return w.Flush()
}

func runBoardPicker(cmd *cobra.Command, _ []string) error {
	if !pickerMode(cmd) {
		return runBoardList(cmd, nil)
	}

	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	current := sess.store.Snapshot().Board
	choice, ok, err := tui.RunPicker(cmd.OutOrStdout(), "Boards", func() ([]tui.Choice, error) {
		boards, err := fetchBoards(commandContext(cmd), sess.cli)
		if err != nil {
			return nil, err
		}
		choices := make([]tui.Choice, 0, len(boards))
		for _, b := range boards {
			status := ""
			if b.FQBN == current {
				status = "selected"
			}
			choices = append(choices, tui.Choice{Label: b.Name, Detail: b.FQBN, Value: b.FQBN, Status: status})
		}
		return choices, nil
	})
	if err != nil || !ok {
		return err
	}
	return setBoard(cmd, sess.store, choice.Value)
}
