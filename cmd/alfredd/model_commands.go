package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func createModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage local models",
	}
	cmd.AddCommand(
		createModelsListCommand(&APIFlags{}),
		createModelsPullCommand(&APIFlags{APITimeout: 30 * time.Minute}), // pulls block until done
		createModelsShowCommand(&APIFlags{}),
		createModelsRemoveCommand(&APIFlags{}),
	)
	return cmd
}

func createModelsListCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed models",
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := flags.client().Models(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flags.JSON {
				return printJSON(out, models)
			}
			if len(models) == 0 {
				_, _ = fmt.Fprintln(out, mutedStyle.Render("no models installed"))
				return nil
			}
			for _, m := range models {
				_, _ = fmt.Fprintf(out, "%-28s %8s  %s %s\n", m.Name, m.SizeDisplay, m.ParameterSize, m.Quantization)
			}
			return nil
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createModelsPullCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull <model>",
		Short: "Download a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := flags.client().PullModel(cmd.Context(), args[0])
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

func createModelsShowCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <model>",
		Short: "Show model details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := flags.client().ShowModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flags.JSON {
				return printJSON(out, info)
			}
			_, _ = fmt.Fprintln(out, headerStyle.Render(args[0]))
			if d := info.Details; d != nil {
				_, _ = fmt.Fprintf(out, "family:        %s\n", d.Family)
				_, _ = fmt.Fprintf(out, "parameters:    %s\n", d.ParameterSize)
				_, _ = fmt.Fprintf(out, "quantization:  %s\n", d.QuantizationLevel)
			}
			if info.Parameters != "" {
				_, _ = fmt.Fprintln(out, mutedStyle.Render(info.Parameters))
			}
			return nil
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createModelsRemoveCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <model>",
		Aliases: []string{"delete"},
		Short:   "Delete a model",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := flags.client().DeleteModel(cmd.Context(), args[0])
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
