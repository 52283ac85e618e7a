package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Open the serial monitor on the configured port",
		Long: "Streams the board's serial output until Ctrl+C. Lines typed on stdin are\n" +
			"sent to the board.",
		Args: cobra.NoArgs,
		RunE: runMonitor,
	}
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := interruptContext(cmd)
	defer stop()

	_, mon := newPipeline(cmd, sess)
	session, err := mon.Start(sess.store.Snapshot())
	if err != nil {
		return err
	}
	if outputJSON {
		fmt.Fprintf(cmd.OutOrStdout(), "{\"monitor_session\": %q}\n", session.ID)
	}
	attachMonitor(ctx, cmd, mon, session)
	return nil
}
