package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/archon/alfredd/internal/hardware"
)

// SystemFlags holds flags for the system command
type SystemFlags struct {
	JSON bool
}

type systemReport struct {
	Hardware        hardware.Snapshot               `json:"hardware"`
	Recommendations []hardware.ModelRecommendation `json:"recommendations"`
}

// createSystemCommand samples hardware in-process; no daemon is needed.
func createSystemCommand() *cobra.Command {
	flags := &SystemFlags{}
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Show local hardware and model recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := hardware.NewSampler(slog.Default()).Snapshot(cmd.Context())
			rep := systemReport{Hardware: snap, Recommendations: hardware.Recommend(snap.GPU.VRAMMB)}
			if flags.JSON {
				return printJSON(cmd.OutOrStdout(), rep)
			}
			renderSystem(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "print raw JSON")
	return cmd
}

func renderSystem(w io.Writer, r systemReport) {
	h := r.Hardware
	_, _ = fmt.Fprintln(w, headerStyle.Render("System"))
	_, _ = fmt.Fprintf(w, "  OS:     %s (%s)\n", h.OS, h.Hostname)
	_, _ = fmt.Fprintf(w, "  CPU:    %s, %d cores / %d threads, %.1f%%\n", h.CPU.Name, h.CPU.Cores, h.CPU.Threads, h.CPU.UsagePercent)
	_, _ = fmt.Fprintf(w, "  Memory: %d / %d MB (%.1f%%)\n", h.Memory.UsedMB, h.Memory.TotalMB, h.Memory.UsagePercent)
	_, _ = fmt.Fprintf(w, "  Disk:   %.1f / %.1f GB (%.1f%%)\n", h.Disk.UsedGB, h.Disk.TotalGB, h.Disk.UsagePercent)
	if h.GPU.Detected {
		_, _ = fmt.Fprintf(w, "  GPU:    %s, %d MB VRAM, driver %s\n", h.GPU.Name, h.GPU.VRAMMB, h.GPU.DriverVersion)
	} else {
		_, _ = fmt.Fprintf(w, "  GPU:    %s\n", mutedStyle.Render(h.GPU.Name))
	}
	_, _ = fmt.Fprintln(w, headerStyle.Render("Recommended models"))
	for _, m := range r.Recommendations {
		mark := " "
		if m.Recommended {
			mark = okStyle.Render("*")
		}
		_, _ = fmt.Fprintf(w, "  %s %-18s %5.1f GB  %s\n", mark, m.ModelName, m.SizeGB, m.Reason)
	}
}

func createUpdateCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for a newer release",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := flags.client().CheckUpdate(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flags.JSON {
				return printJSON(out, info)
			}
			if !info.Available {
				_, _ = fmt.Fprintf(out, "Up to date (%s, latest %s)\n", info.CurrentVersion, info.LatestVersion)
				return nil
			}
			_, _ = fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("Update available: %s -> %s", info.CurrentVersion, info.LatestVersion)))
			if info.DownloadURL != "" {
				_, _ = fmt.Fprintln(out, "  "+info.DownloadURL)
			}
			return nil
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

// createContainerActionCommand builds `containers start|stop <searxng|signal-cli>`.
func createContainerActionCommand(action string, flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:       action + " <searxng|signal-cli>",
		Short:     action + " an auxiliary container",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"searxng", "signal-cli"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c := flags.client()
			call := c.StartContainer
			if action == "stop" {
				call = c.StopContainer
			}
			res, err := call(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flags.JSON {
				return printJSON(out, res)
			}
			verb := "started"
			if action == "stop" {
				verb = "stopped"
			}
			_, _ = fmt.Fprintln(out, okStyle.Render(res.Name+" "+verb))
			return nil
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createContainersCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "containers",
		Short: "List Alfred-owned containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := flags.client().Containers(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flags.JSON {
				return printJSON(out, list)
			}
			if len(list) == 0 {
				_, _ = fmt.Fprintln(out, mutedStyle.Render("no containers"))
				return nil
			}
			for _, c := range list {
				state := mutedStyle.Render(c.Status)
				if c.Running {
					state = okStyle.Render(c.Status)
				}
				_, _ = fmt.Fprintf(out, "%-20s %-32s %s %s\n", c.Name, c.Image, state, c.Ports)
			}
			return nil
		},
	}
	addAPIFlags(cmd, flags)
	cmd.AddCommand(
		createContainerActionCommand("start", &APIFlags{}),
		createContainerActionCommand("stop", &APIFlags{}),
	)
	return cmd
}
