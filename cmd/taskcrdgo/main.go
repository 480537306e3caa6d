// Command taskcrdgo loads a declarative HCL grid of steps and fields and
// runs it to completion.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kenwatanabe/taskcrdgo/internal/app"
	"github.com/kenwatanabe/taskcrdgo/internal/cli"
	"github.com/kenwatanabe/taskcrdgo/internal/gridconfig"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. It recovers a panic during app construction or execution,
// surfacing it as an ordinary error rather than taking the process down —
// a defensive backstop, not a control-flow mechanism: app.NewApp and
// app.App.Run are expected to return errors for every failure they know
// about.
func run(outW io.Writer, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	ctx := context.Background()
	// A caller that needs its own stepapi.Step implementations wires
	// them into the graph directly via graphbuilder.Builder, bypassing
	// this HCL-driven binary entirely; this default registry only serves
	// declarative step "..." { handler = "..." } blocks.
	reg := gridconfig.NewRegistry()

	taskApp, err := app.NewApp(ctx, outW, *cfg, reg)
	if err != nil {
		return fmt.Errorf("application startup failed: %w", err)
	}

	result := taskApp.Run(ctx, nil)
	if !result.Success {
		return fmt.Errorf("execution failed: %s", result.Summary())
	}
	return nil
}
