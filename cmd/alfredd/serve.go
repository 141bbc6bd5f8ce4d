package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/archon/alfredd/internal/app"
	"github.com/archon/alfredd/internal/config"
	"github.com/archon/alfredd/internal/metrics"
	"github.com/archon/alfredd/internal/server"
)

// ServeFlags holds flags for the serve command
type ServeFlags struct {
	Listen  string
	Console bool
}

func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	serveFlags := &ServeFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		Long: `Run the daemon in the foreground. The gateway is started when
gateway.auto_start is set and is always stopped on SIGINT/SIGTERM.

With --console, commands are also read from stdin, one per line:
start, stop, status [name], logs, quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, globalFlags.Home, serveFlags, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&serveFlags.Listen, "listen", "", "override server.listen")
	cmd.Flags().BoolVar(&serveFlags.Console, "console", false, "read commands from stdin")
	return cmd
}

func runServe(ctx context.Context, home string, flags *ServeFlags, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(home)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if flags.Listen != "" {
		cfg.Server.Listen = flags.Listen
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	a, err := app.New(app.Options{Home: home, Config: cfg, Logger: slog.Default()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := server.NewServer(cfg.Server.Listen, cfg.Server.BasePath, a)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", cfg.Server.Listen, "base_path", cfg.Server.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.Bootstrap(gctx)
		return nil
	})
	if flags.Console {
		reqs := make(chan app.Request)
		g.Go(func() error {
			if err := a.Serve(gctx, reqs); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		go func() {
			readConsole(gctx, in, out, reqs, a.Aggregator().Names())
			cancel()
		}()
	}
	g.Go(func() error {
		<-gctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), a.ShutdownTimeout())
		defer scancel()
		err := srv.Shutdown(sctx)
		return errors.Join(err, a.Close(sctx))
	})

	err = g.Wait()
	slog.Info("daemon stopped")
	return err
}

// readConsole turns stdin lines into commands until EOF, quit or ctx end.
// The daemon shuts down once it returns.
func readConsole(ctx context.Context, in io.Reader, out io.Writer, reqs chan<- app.Request, names []string) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		cmd, ok := parseConsole(sc.Text())
		if !ok {
			_, _ = fmt.Fprintln(out, "commands: start, stop, status [name], logs, quit")
			_, _ = fmt.Fprintln(out, mutedStyle.Render("services: "+strings.Join(names, ", ")))
			continue
		}
		res := app.Send(ctx, reqs, cmd)
		printResult(out, res)
		if _, quit := cmd.(app.CmdQuit); quit || ctx.Err() != nil {
			return
		}
	}
}

func parseConsole(line string) (app.Command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false
	}
	switch strings.ToLower(fields[0]) {
	case "start":
		return app.CmdStart{}, true
	case "stop":
		return app.CmdStop{}, true
	case "status":
		if len(fields) > 1 {
			return app.CmdStatus{Name: strings.Join(fields[1:], " ")}, true
		}
		return app.CmdStatus{}, true
	case "logs":
		return app.CmdLogs{}, true
	case "quit", "exit":
		return app.CmdQuit{}, true
	}
	return nil, false
}

func printResult(w io.Writer, res app.Result) {
	switch {
	case res.Err != nil:
		_, _ = fmt.Fprintln(w, errorStyle.Render("error: "+res.Err.Error()))
	case res.Statuses != nil:
		_, _ = fmt.Fprint(w, renderServices(fromReport(res.Statuses)))
	case res.Logs != nil:
		for _, l := range res.Logs {
			_, _ = fmt.Fprintln(w, l)
		}
	case res.Message != "":
		_, _ = fmt.Fprintln(w, res.Message)
	}
}
