package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"arduinoctl/internal/library"
	"arduinoctl/internal/tui"
)

var libraryRefresh bool

func newLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Pick a library from the catalog to install or update",
		Long: "Without a subcommand, shows the library catalog in a picker. Selecting a\n" +
			"library installs it, or updates it when it is already installed.",
		Args: cobra.NoArgs,
		RunE: runLibraryPicker,
	}
	cmd.PersistentFlags().BoolVar(&libraryRefresh, "refresh", false, "Refresh the cached catalog before showing it")

	cmd.AddCommand(
		newLibraryListCmd(),
		newLibrarySearchCmd(),
		newLibraryInstallCmd(),
		newLibraryUpdateIndexCmd(),
	)
	return cmd
}

// --- library (picker) ---

func runLibraryPicker(cmd *cobra.Command, _ []string) error {
	if !pickerMode(cmd) {
		return runLibraryList(cmd, nil)
	}

	svc, closer, err := newLibraryService()
	if err != nil {
		return err
	}
	defer closer.Close()
	ctx := commandContext(cmd)

	var items []library.Item
	choice, ok, err := tui.RunPicker(cmd.OutOrStdout(), "Libraries", func() ([]tui.Choice, error) {
		var loadErr error
		items, loadErr = svc.Items(ctx, libraryRefresh)
		if loadErr != nil {
			return nil, loadErr
		}
		return libraryChoices(items), nil
	})
	if err != nil {
		if errors.Is(err, library.ErrRefresh) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Library catalog unavailable: %v\n", err)
			return nil
		}
		return err
	}
	if !ok {
		return nil
	}

	item, found := library.Find(items, choice.Value)
	if !found {
		return fmt.Errorf("library %q is no longer in the catalog", choice.Value)
	}
	return applyLibrary(cmd, svc, item)
}

func libraryChoices(items []library.Item) []tui.Choice {
	choices := make([]tui.Choice, 0, len(items))
	for _, item := range items {
		detail := item.Sentence
		switch item.Status {
		case library.StatusOutdated:
			detail = fmt.Sprintf("%s → %s  %s", item.Installed, item.Latest, detail)
		case library.StatusInstalled:
			detail = fmt.Sprintf("%s  %s", item.Installed, detail)
		}
		choices = append(choices, tui.Choice{
			Label:  item.Name,
			Detail: strings.TrimSpace(detail),
			Value:  item.Name,
			Status: string(item.Status),
		})
	}
	return choices
}

func applyLibrary(cmd *cobra.Command, svc *library.Service, item library.Item) error {
	var res library.Result
	err := withSpinner(cmd, fmt.Sprintf("Running %s for %s", actionFor(item), item.Name), func() error {
		var applyErr error
		res, applyErr = svc.Apply(commandContext(cmd), item)
		return applyErr
	})
	if err != nil {
		return err
	}

	if outputJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), res.Message())
		if !res.OK() && res.Output != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), res.Output)
		}
	}
	if !res.OK() {
		return fmt.Errorf("arduino-cli lib %s %s exited with code %d", res.Action, res.Name, res.ExitCode)
	}
	return nil
}

func actionFor(item library.Item) library.Action {
	if item.Status == library.StatusNotInstalled || item.Status == "" {
		return library.ActionInstall
	}
	return library.ActionUpgrade
}

// --- library list ---

func newLibraryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the library catalog with install status",
		Args:  cobra.NoArgs,
		RunE:  runLibraryList,
	}
}

func runLibraryList(cmd *cobra.Command, _ []string) error {
	items, ok, err := loadLibraryItems(cmd)
	if err != nil || !ok {
		return err
	}
	return writeLibraryItems(cmd, items)
}

// loadLibraryItems reports ok=false after telling the user the catalog could
// not be fetched.
func loadLibraryItems(cmd *cobra.Command) ([]library.Item, bool, error) {
	svc, closer, err := newLibraryService()
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	var items []library.Item
	err = withSpinner(cmd, "Loading library catalog", func() error {
		var loadErr error
		items, loadErr = svc.Items(commandContext(cmd), libraryRefresh)
		return loadErr
	})
	if err != nil {
		if errors.Is(err, library.ErrRefresh) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Library catalog unavailable: %v\n", err)
			return nil, false, nil
		}
		return nil, false, err
	}
	return items, true, nil
}

func writeLibraryItems(cmd *cobra.Command, items []library.Item) error {
	if outputJSON {
		if items == nil {
			items = []library.Item{}
		}
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No libraries found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tINSTALLED\tLATEST\tDESCRIPTION")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			item.Name,
			item.Status,
			tui.NonEmptyOrDash(item.Installed),
			tui.NonEmptyOrDash(item.Latest),
			tui.TruncateWithEllipsis(item.Sentence, 60),
		)
	}
	return w.Flush()
}

// --- library search ---

func newLibrarySearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy-search the library catalog by name",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLibrarySearch,
	}
}

func runLibrarySearch(cmd *cobra.Command, args []string) error {
	items, ok, err := loadLibraryItems(cmd)
	if err != nil || !ok {
		return err
	}
	return writeLibraryItems(cmd, library.Search(items, strings.Join(args, " ")))
}

// --- library install ---

func newLibraryInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <name>",
		Short: "Install a library, or update it when already installed",
		Args:  cobra.ExactArgs(1),
		RunE:  runLibraryInstall,
	}
}

func runLibraryInstall(cmd *cobra.Command, args []string) error {
	svc, closer, err := newLibraryService()
	if err != nil {
		return err
	}
	defer closer.Close()

	name := strings.TrimSpace(args[0])
	installed, outdated := svc.Resolver.Sets(commandContext(cmd))
	status := library.StatusOf(name, installed, outdated)
	item := library.Item{Name: name, Status: status, Installed: installed[name], Latest: outdated[name]}

	if status == library.StatusInstalled {
		fmt.Fprintf(cmd.OutOrStdout(), "Library %s is already up to date (%s)\n", name, item.Installed)
		return nil
	}
	return applyLibrary(cmd, svc, item)
}

// --- library update-index ---

func newLibraryUpdateIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-index",
		Short: "Update arduino-cli's library index and refresh the cached catalog",
		Args:  cobra.NoArgs,
		RunE:  runLibraryUpdateIndex,
	}
}

func runLibraryUpdateIndex(cmd *cobra.Command, _ []string) error {
	svc, closer, err := newLibraryService()
	if err != nil {
		return err
	}
	defer closer.Close()

	var rec library.Record
	err = withSpinner(cmd, "Updating library index", func() error {
		var updateErr error
		rec, updateErr = svc.UpdateIndex(commandContext(cmd))
		return updateErr
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Library index updated (%d libraries)\n", len(rec.Entries))
	return nil
}
