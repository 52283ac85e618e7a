package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"arduinoctl/internal/config"
	"arduinoctl/internal/library"
	"arduinoctl/internal/paths"
	"arduinoctl/internal/toolchain"
	"arduinoctl/internal/tui"
)

var probeToolchain = toolchain.Probe

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the board configuration, toolchain and catalog cache state",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

type catalogSummary struct {
	Path      string    `json:"path"`
	Present   bool      `json:"present"`
	Entries   int       `json:"entries"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
	Fresh     bool      `json:"fresh"`
}

func inspectCatalog() (catalogSummary, error) {
	path, err := catalogPath()
	if err != nil {
		return catalogSummary{}, err
	}
	summary := catalogSummary{Path: path}
	rec, ok := library.NewCache(path, toolchain.CLI{}, nil, nil).Read()
	if !ok {
		return summary, nil
	}
	summary.Present = true
	summary.Entries = len(rec.Entries)
	summary.FetchedAt = rec.FetchedAt
	summary.Fresh = rec.Fresh(time.Now(), library.DefaultTTL)
	return summary, nil
}

func (c catalogSummary) describe() string {
	if !c.Present {
		return "not cached"
	}
	age := time.Since(c.FetchedAt).Truncate(time.Minute)
	state := "fresh"
	if !c.Fresh {
		state = "stale"
	}
	return fmt.Sprintf("%d libraries, fetched %s ago (%s)", c.Entries, age, state)
}

type statusReport struct {
	Project   string                    `json:"project"`
	Sketch    string                    `json:"sketch"`
	HasSketch bool                      `json:"has_sketch"`
	Config    config.Config             `json:"config"`
	Issues    []config.ValidationResult `json:"issues,omitempty"`
	Toolchain toolchain.ToolInfo        `json:"toolchain"`
	Catalog   catalogSummary            `json:"catalog"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	if err := ensureProjectDirs(pp); err != nil {
		return err
	}

	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return err
	}

	report := statusReport{
		Project:   pp.Root,
		Sketch:    pp.SketchFile,
		HasSketch: pp.HasSketch(),
		Config:    cfg,
		Issues:    cfg.Validate(),
		Toolchain: probeToolchain(commandContext(cmd), toolchain.Resolve(cliPath), newRunner()),
	}
	report.Catalog, err = inspectCatalog()
	if err != nil {
		return err
	}

	if outputJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode status json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	writeStatusTable(cmd, report)
	return nil
}

func writeStatusTable(cmd *cobra.Command, report statusReport) {
	fmt.Fprintf(cmd.OutOrStdout(), "Project: %s\n", report.Project)

	sketch := report.Sketch
	if !report.HasSketch {
		sketch += " (missing)"
	}
	toolLine := "not found"
	if report.Toolchain.Available {
		toolLine = fmt.Sprintf("%s %s", report.Toolchain.Path, tui.NonEmptyOrDash(report.Toolchain.Version))
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "Sketch\t%s\n", sketch)
	fmt.Fprintf(w, "Board\t%s\n", report.Config.Board)
	fmt.Fprintf(w, "Port\t%s\n", tui.NonEmptyOrDash(report.Config.Port))
	fmt.Fprintf(w, "Baud rate\t%d\n", report.Config.BaudRate)
	fmt.Fprintf(w, "Toolchain\t%s\n", toolLine)
	fmt.Fprintf(w, "Catalog\t%s\n", report.Catalog.describe())
	w.Flush()

	for _, issue := range report.Issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "  - %s: %s\n", issue.Level, issue.Message)
	}
}
