package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"arduinoctl/internal/config"
	"arduinoctl/internal/logx"
	"arduinoctl/internal/paths"
)

const sketchTemplate = `void setup() {
  Serial.begin(%d);
}

void loop() {
}
`

var initBoard string

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a sketch directory with a main .ino file and a board config",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}
	cmd.Flags().StringVar(&initBoard, "board", config.DefaultBoard, "Board FQBN to store in the new config")
	return cmd
}

func resolveInitDir(projectFlag string, args []string) (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	if len(args) > 0 {
		if args[0] == "." {
			return cwd, nil
		}
		return filepath.Join(cwd, args[0]), nil
	}
	return nextAvailableDir(cwd)
}

func nextAvailableDir(base string) (string, error) {
	for i := 1; ; i++ {
		candidate := filepath.Join(base, fmt.Sprintf("sketch-%d", i))
		exists, err := paths.DirExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := config.ValidateFQBN(initBoard); err != nil {
		return err
	}
	dir, err := resolveInitDir(projectDir, args)
	if err != nil {
		return err
	}

	pp, err := paths.Resolve(dir)
	if err != nil {
		return err
	}
	if err := pp.EnsureRoot(); err != nil {
		return err
	}
	if err := pp.EnsureMetaDirs(); err != nil {
		return err
	}

	logger, closer, err := logx.New(pp)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Printf("init: project=%s board=%s", pp.Root, initBoard)

	var created []string
	if ok, err := ensureSketch(pp); err != nil {
		return err
	} else if ok {
		created = append(created, filepath.Base(pp.SketchFile))
	}
	if ok, err := ensureBoardConfig(pp, initBoard); err != nil {
		return err
	} else if ok {
		created = append(created, filepath.Base(pp.ConfigFile))
	}

	if len(created) == 0 {
		cmd.Printf("Sketch already initialized at %s\n", pp.Root)
		return nil
	}
	cmd.Printf("Initialized sketch at %s\n", pp.Root)
	for _, entry := range created {
		logger.Printf("init: created %s", entry)
		cmd.Printf("  created %s\n", entry)
	}
	return nil
}

func ensureSketch(pp paths.ProjectPaths) (bool, error) {
	if pp.HasSketch() {
		return false, nil
	}
	body := fmt.Sprintf(sketchTemplate, config.DefaultBaudRate)
	if err := os.WriteFile(pp.SketchFile, []byte(body), 0o644); err != nil {
		return false, fmt.Errorf("write sketch: %w", err)
	}
	return true, nil
}

func ensureBoardConfig(pp paths.ProjectPaths, board string) (bool, error) {
	exists, err := paths.FileExists(pp.ConfigFile)
	if err != nil {
		return false, fmt.Errorf("check config: %w", err)
	}
	if exists {
		return false, nil
	}
	cfg := config.Default()
	cfg.Board = board
	if err := config.Save(pp.ConfigFile, cfg); err != nil {
		return false, err
	}
	return true, nil
}
