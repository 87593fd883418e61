package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"equitydesk/internal/agents/workflows"
	"equitydesk/internal/bootstrap"
	"equitydesk/internal/domain/run"
	researchsvc "equitydesk/internal/services/research"
)

const usage = `Usage: equitydesk <command> [flags]

Commands:
  run              Analyse the company configured in the environment
  trigger <json>   Analyse with a JSON payload merged over the environment
  serve            Start the HTTP API and background workers
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	quiet := flag.Bool("quiet", false, "Do not print progress events")
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	switch flag.Arg(0) {
	case "run":
		os.Exit(runOnce(nil, *quiet))
	case "trigger":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "trigger requires a JSON payload argument")
			os.Exit(2)
		}
		payload := []byte(flag.Arg(1))
		os.Exit(runOnce(payload, *quiet))
	case "serve":
		serve()
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// runOnce performs a single research run and prints the status summary,
// followed by the report on success. payload nil means environment only.
func runOnce(payload []byte, quiet bool) int {
	container := bootstrap.NewContainer()
	container.MustInitCore()
	defer container.Close()

	ctx, stop := signal.NotifyContext(container.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sink workflows.ProgressSink
	if !quiet {
		sink = func(ev workflows.ProgressEvent) {
			if ev.Model != "" {
				fmt.Fprintf(os.Stderr, "[%s] %s (%s)\n", ev.Stage, ev.Message, ev.Model)
				return
			}
			fmt.Fprintf(os.Stderr, "[%s] %s\n", ev.Stage, ev.Message)
		}
	}

	research := container.Services.Research

	var (
		outcome *researchsvc.Outcome
		err     error
	)
	if payload == nil {
		outcome, err = research.Execute(ctx, researchsvc.Request{
			Run:     container.Config.DefaultRun(),
			Trigger: run.TriggerCLI,
		}, sink)
	} else {
		outcome, err = research.RunTrigger(ctx, container.Config.Company.RunInput(), payload, run.TriggerPayload, sink)
	}

	fmt.Println(outcome.Summary)
	if err != nil {
		return 1
	}

	fmt.Println()
	fmt.Println(outcome.Report)
	return 0
}

func serve() {
	container := bootstrap.NewContainer()
	container.MustInit()

	if err := container.Start(); err != nil {
		container.Log.Errorw("Failed to start", "error", err)
		container.Shutdown()
		os.Exit(1)
	}

	waitForShutdown(container.Context)
	container.Shutdown()
}

// waitForShutdown blocks until a signal arrives or the container cancels itself
func waitForShutdown(ctx context.Context) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-ctx.Done():
	}
}
