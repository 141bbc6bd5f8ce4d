package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archon/alfredd/pkg/client"
)

func createAgentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Manage gateway agents",
	}
	cmd.AddCommand(
		createAgentsListCommand(&APIFlags{}),
		createAgentWriteCommand("create", &APIFlags{}),
		createAgentWriteCommand("update", &APIFlags{}),
		createAgentsRemoveCommand(&APIFlags{}),
	)
	return cmd
}

func createAgentsListCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			agents, err := flags.client().Agents(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flags.JSON {
				return printJSON(out, agents)
			}
			if len(agents) == 0 {
				_, _ = fmt.Fprintln(out, mutedStyle.Render("no agents"))
				return nil
			}
			for _, a := range agents {
				state := okStyle.Render("enabled")
				if !a.Enabled {
					state = mutedStyle.Render("disabled")
				}
				_, _ = fmt.Fprintf(out, "%-12s %-20s %-20s %d tools  %s\n", a.ID, a.Name, a.Model, a.ToolsCount, state)
			}
			return nil
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

// createAgentWriteCommand builds "create" or "update <id>"; both send a full
// agent config.
func createAgentWriteCommand(action string, flags *APIFlags) *cobra.Command {
	var (
		cfg      client.AgentConfig
		disabled bool
	)
	cmd := &cobra.Command{
		Use:   action,
		Short: "Create an agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Enabled = !disabled
			var (
				info client.AgentInfo
				err  error
			)
			if action == "update" {
				info, err = flags.client().UpdateAgent(cmd.Context(), args[0], cfg)
			} else {
				info, err = flags.client().CreateAgent(cmd.Context(), cfg)
			}
			if err != nil {
				return err
			}
			if flags.JSON {
				return printJSON(cmd.OutOrStdout(), info)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("agent %s (%s) %sd", info.Name, info.ID, action)))
			return nil
		},
	}
	if action == "update" {
		cmd.Use = "update <id>"
		cmd.Short = "Replace an agent's config"
		cmd.Args = cobra.ExactArgs(1)
	}
	cmd.Flags().StringVar(&cfg.Name, "name", "", "agent name")
	cmd.Flags().StringVar(&cfg.Model, "model", "", "model the agent runs on")
	cmd.Flags().StringVar(&cfg.SystemPrompt, "system-prompt", "", "system prompt")
	cmd.Flags().Float32Var(&cfg.Temperature, "temperature", 0.7, "sampling temperature")
	cmd.Flags().Uint32Var(&cfg.MaxTokens, "max-tokens", 2048, "response token limit")
	cmd.Flags().StringSliceVar(&cfg.Tools, "tool", nil, "tool the agent may use (repeatable)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the agent disabled")
	_ = cmd.MarkFlagRequired("name")
	addAPIFlags(cmd, flags)
	return cmd
}

func createAgentsRemoveCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an agent",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := flags.client().DeleteAgent(cmd.Context(), args[0])
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

func createPrivacyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "privacy",
		Short: "Show the gateway's privacy report",
	}
	cmd.AddCommand(createPrivacyScoreCommand(&APIFlags{}), createAuditCommand(&APIFlags{}))
	return cmd
}

func createPrivacyScoreCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Show the privacy score",
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := flags.client().PrivacyScore(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flags.JSON {
				return printJSON(out, score)
			}
			_, _ = fmt.Fprintf(out, "%s %d/100\n", headerStyle.Render("privacy score"), score.Score)
			_, _ = fmt.Fprintf(out, "messages: %d total, %d local, %d cloud, %d redacted\n",
				score.TotalMessages, score.LocalMessages, score.CloudMessages, score.RedactedMessages)
			for _, r := range score.Recommendations {
				_, _ = fmt.Fprintln(out, mutedStyle.Render("- "+r))
			}
			return nil
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createAuditCommand(flags *APIFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the data-flow audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := flags.client().AuditLog(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flags.JSON {
				return printJSON(out, entries)
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(out, mutedStyle.Render("audit log is empty"))
				return nil
			}
			for _, e := range entries {
				_, _ = fmt.Fprintf(out, "%s  %-8s %s -> %s  %s [%s]\n", e.Timestamp, e.Action, e.Source, e.Destination, e.DataType, e.PrivacyLevel)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "number of entries")
	addAPIFlags(cmd, flags)
	return cmd
}
