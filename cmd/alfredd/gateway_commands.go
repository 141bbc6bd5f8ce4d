package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// LogsFlags holds flags for the logs command
type LogsFlags struct {
	APIFlags
	Tail int
}

func createStartCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := flags.client().StartGateway(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(msg))
			return nil
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createStopCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := flags.client().StopGateway(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(msg))
			return nil
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createStatusCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [service]",
		Short: "Show service status",
		Long: `Show the status of every registered service, or of one service by name.

Examples:
  alfredd status
  alfredd status ollama
  alfredd status gateway --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := flags.client()
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				if args[0] == "gateway" && flags.JSON {
					st, err := c.GatewayStatus(cmd.Context())
					if err != nil {
						return err
					}
					return printJSON(out, st)
				}
				st, err := c.Service(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if flags.JSON {
					return printJSON(out, st)
				}
				_, _ = fmt.Fprint(out, renderServices([]serviceRow{rowFromClient(st)}))
				return nil
			}
			report, err := c.Services(cmd.Context())
			if err != nil {
				return err
			}
			if flags.JSON {
				return printJSON(out, report)
			}
			rows := make([]serviceRow, 0, len(report))
			for _, st := range report {
				rows = append(rows, rowFromClient(st))
			}
			_, _ = fmt.Fprint(out, renderServices(rows))
			return nil
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createLogsCommand(flags *LogsFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print captured gateway output",
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := flags.client().Logs(cmd.Context(), flags.Tail)
			if err != nil {
				return err
			}
			if flags.JSON {
				return printJSON(cmd.OutOrStdout(), lines)
			}
			for _, l := range lines {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
	addAPIFlags(cmd, &flags.APIFlags)
	cmd.Flags().IntVar(&flags.Tail, "tail", 0, "only the last N lines")
	return cmd
}
