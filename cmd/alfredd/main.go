package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/archon/alfredd/internal/config"
	"github.com/archon/alfredd/internal/logger"
	"github.com/archon/alfredd/pkg/client"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by all commands
type GlobalFlags struct {
	Home      string
	LogLevel  string
	LogFormat string
	NoColor   bool
}

// APIFlags holds daemon connection flags
type APIFlags struct {
	APIUrl     string
	APITimeout time.Duration
	JSON       bool
}

func (f *APIFlags) client() *client.Client {
	return client.New(client.Config{BaseURL: f.APIUrl, Timeout: f.APITimeout})
}

func addAPIFlags(cmd *cobra.Command, f *APIFlags) {
	cmd.Flags().StringVar(&f.APIUrl, "api-url", client.DefaultBaseURL, "daemon API base URL")
	timeout := f.APITimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	cmd.Flags().DurationVar(&f.APITimeout, "api-timeout", timeout, "API request timeout")
	cmd.Flags().BoolVar(&f.JSON, "json", false, "print raw JSON")
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	root := createRootCommand(globalFlags)
	root.AddCommand(
		createServeCommand(globalFlags),
		createStartCommand(&APIFlags{}),
		createStopCommand(&APIFlags{}),
		createStatusCommand(&APIFlags{}),
		createLogsCommand(&LogsFlags{}),
		createSystemCommand(),
		createUpdateCommand(&APIFlags{}),
		createModelsCommand(),
		createContainersCommand(&APIFlags{}),
		createAgentsCommand(),
		createPrivacyCommand(),
		createVersionCommand(),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "alfredd",
		Short: "Local AI assistant daemon",
		Long: `alfredd supervises the Alfred gateway process and reports the health
of the local services it depends on (Ollama, Docker, SearXNG).

Examples:
  alfredd serve                 # run the daemon in the foreground
  alfredd status                # service table from the running daemon
  alfredd start | stop          # control the gateway
  alfredd logs --tail 50
  alfredd system                # local hardware report`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Setup(logger.Options{
				Level:  flags.LogLevel,
				Format: flags.LogFormat,
				Color:  !flags.NoColor,
			})
		},
	}
	root.PersistentFlags().StringVar(&flags.Home, "home", config.AlfredHome(), "Alfred home directory (ALFRED_HOME)")
	root.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "text", "log format: text or json")
	root.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false, "disable colored log output")
	return root
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), config.Version)
		},
	}
}
