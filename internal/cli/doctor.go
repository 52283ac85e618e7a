package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"arduinoctl/internal/config"
	"arduinoctl/internal/paths"
	"arduinoctl/internal/toolchain"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the project is ready to compile and upload",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return fmt.Errorf("project directory does not exist: %s", pp.Root)
	}

	cli := toolchain.Resolve(cliPath)
	tool := checkToolchain(cmd, cli)
	cfg, cfgErr := config.Load(pp.ConfigFile)

	checks := []healthCheck{
		tool,
		checkConfig(cfg, cfgErr),
		checkSketch(pp),
		checkCatalog(),
	}
	if tool.Status == "ok" {
		checks = append(checks, checkPorts(cmd, cli, cfg))
	}
	return writeDoctorResult(cmd, pp.Root, checks)
}

func checkToolchain(cmd *cobra.Command, cli toolchain.CLI) healthCheck {
	info := probeToolchain(commandContext(cmd), cli, newRunner())
	switch {
	case !info.Available:
		return healthCheck{Name: "Toolchain", Status: "error", Summary: fmt.Sprintf("%s: %s", info.Name, info.Error)}
	case info.Error != "":
		return healthCheck{Name: "Toolchain", Status: "warning", Summary: fmt.Sprintf("%s: %s", info.Path, info.Error)}
	}
	return healthCheck{Name: "Toolchain", Status: "ok", Summary: strings.TrimSpace(info.Name + " " + info.Version)}
}

func checkConfig(cfg config.Config, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}

	var warnings, errs []string
	for _, v := range cfg.Validate() {
		switch v.Level {
		case "warning":
			warnings = append(warnings, v.Message)
		case "error":
			errs = append(errs, v.Message)
		}
	}

	summary := fmt.Sprintf("%s @ %d baud", cfg.Board, cfg.BaudRate)
	if len(errs) > 0 {
		return healthCheck{Name: "Config", Status: "error", Summary: joinComma(errs)}
	}
	if len(warnings) > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%s; %s", summary, joinComma(warnings))}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: summary}
}

func checkSketch(pp paths.ProjectPaths) healthCheck {
	if !pp.HasSketch() {
		return healthCheck{Name: "Sketch", Status: "error", Summary: "missing " + pp.SketchFile}
	}
	return healthCheck{Name: "Sketch", Status: "ok", Summary: pp.SketchFile}
}

func checkCatalog() healthCheck {
	summary, err := inspectCatalog()
	if err != nil {
		return healthCheck{Name: "Catalog", Status: "warning", Summary: err.Error()}
	}
	if !summary.Present || !summary.Fresh {
		return healthCheck{Name: "Catalog", Status: "warning", Summary: summary.describe() + "; refreshed on next 'library' run"}
	}
	return healthCheck{Name: "Catalog", Status: "ok", Summary: summary.describe()}
}

func checkPorts(cmd *cobra.Command, cli toolchain.CLI, cfg config.Config) healthCheck {
	ports, err := fetchPorts(commandContext(cmd), cli)
	if err != nil {
		return healthCheck{Name: "Ports", Status: "warning", Summary: err.Error()}
	}
	if len(ports) == 0 {
		return healthCheck{Name: "Ports", Status: "warning", Summary: noPortsMessage}
	}

	addresses := make([]string, 0, len(ports))
	configured := false
	for _, p := range ports {
		addresses = append(addresses, p.Address)
		if p.Address == cfg.Port {
			configured = true
		}
	}
	if cfg.Port != "" && !configured {
		return healthCheck{
			Name:    "Ports",
			Status:  "warning",
			Summary: fmt.Sprintf("configured port %s not detected (found %s)", cfg.Port, joinComma(addresses)),
		}
	}
	return healthCheck{Name: "Ports", Status: "ok", Summary: joinComma(addresses)}
}

func writeDoctorResult(cmd *cobra.Command, projectRoot string, checks []healthCheck) error {
	if outputJSON {
		data, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("PROJECT HEALTH:")+" "+projectRoot)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}

	return nil
}

func joinComma(items []string) string {
	return strings.Join(items, ", ")
}
