package app

import (
	"context"
	"errors"

	"github.com/archon/alfredd/internal/services"
)

// Command is a request from a UI surface (CLI, HTTP, tray) to the core.
type Command interface{ commandName() string }

type (
	CmdStart  struct{}
	CmdStop   struct{}
	CmdStatus struct{ Name string } // empty Name means the full report
	CmdLogs   struct{}
	CmdQuit   struct{}
)

func (CmdStart) commandName() string  { return "start" }
func (CmdStop) commandName() string   { return "stop" }
func (CmdStatus) commandName() string { return "status" }
func (CmdLogs) commandName() string   { return "logs" }
func (CmdQuit) commandName() string   { return "quit" }

// Result is the reply to a Command. Err is nil on success.
type Result struct {
	Message  string
	Statuses services.StatusReport
	Logs     []string
	Err      error
}

// Request pairs a Command with the channel its Result is delivered on.
type Request struct {
	Cmd   Command
	Reply chan<- Result
}

var errUnknownCommand = errors.New("unknown command")

// Handle executes one command. Failures are returned in Result.Err, never
// by exiting.
func (a *App) Handle(ctx context.Context, cmd Command) Result {
	switch c := cmd.(type) {
	case CmdStart:
		if err := a.sup.Start(ctx); err != nil {
			return Result{Err: err}
		}
		return Result{Message: "Gateway started"}
	case CmdStop:
		if err := a.sup.Stop(ctx); err != nil {
			return Result{Err: err}
		}
		return Result{Message: "Gateway stopped"}
	case CmdStatus:
		if c.Name == "" {
			return Result{Statuses: a.agg.Collect(ctx)}
		}
		st, err := a.agg.Lookup(ctx, c.Name)
		if err != nil {
			return Result{Err: err}
		}
		return Result{Statuses: services.StatusReport{st}}
	case CmdLogs:
		return Result{Logs: a.sup.Logs()}
	case CmdQuit:
		if err := a.sup.Shutdown(ctx); err != nil {
			return Result{Err: err}
		}
		return Result{Message: "Shutting down"}
	default:
		return Result{Err: errUnknownCommand}
	}
}

// Serve handles requests in arrival order until ctx is done, reqs is closed
// or a CmdQuit has been answered.
func (a *App) Serve(ctx context.Context, reqs <-chan Request) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-reqs:
			if !ok {
				return nil
			}
			a.log.Debug("command", "name", nameOf(req.Cmd))
			res := a.Handle(ctx, req.Cmd)
			if req.Reply != nil {
				select {
				case req.Reply <- res:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if _, quit := req.Cmd.(CmdQuit); quit {
				return nil
			}
		}
	}
}

func nameOf(cmd Command) string {
	if cmd == nil {
		return "<nil>"
	}
	return cmd.commandName()
}

// Send delivers cmd to a Serve loop and waits for its Result.
func Send(ctx context.Context, reqs chan<- Request, cmd Command) Result {
	reply := make(chan Result, 1)
	select {
	case reqs <- Request{Cmd: cmd, Reply: reply}:
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
	select {
	case res := <-reply:
		return res
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
}
