// Package main implements the main entry point for a bytecode disassembler
// that rebuilds control flow structure as an annotated token stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/pydisasm/internal/cli"
	"github.com/retroenv/pydisasm/internal/config"
	"github.com/retroenv/pydisasm/internal/options"
	"github.com/retroenv/pydisasm/internal/pipeline"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			printBanner(logger, opts)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)

	if opts.Config != "" {
		if err := config.LoadFile(opts.Config, &opts); err != nil {
			logger.Fatal(err.Error())
		}
	}

	printBanner(logger, opts)

	if err := run(ctx, logger, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Disassembling failed", log.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger, opts options.Program) error {
	p, err := pipeline.New(logger, opts.Version)
	if err != nil {
		return err
	}

	output, err := createOutput(opts)
	if err != nil {
		return err
	}
	defer func() {
		if closer, ok := output.(io.Closer); ok && output != os.Stdout {
			_ = closer.Close()
		}
	}()

	units, err := p.Execute(ctx, opts, output)
	if err != nil {
		return err
	}

	if !opts.Quiet {
		logger.Info("Disassembled file",
			log.String("input", opts.Input),
			log.Int("units", units),
		)
	}
	return nil
}

func createOutput(opts options.Program) (io.Writer, error) {
	if opts.Output == "" {
		return os.Stdout, nil
	}
	file, err := os.Create(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("creating output file %s: %w", opts.Output, err)
	}
	return file, nil
}

// printBanner prints application version information
func printBanner(logger *log.Logger, opts options.Program) {
	if opts.Quiet {
		return
	}

	logger.Info("pydisasm", log.String("version", buildinfo.Version(version, commit, date)))
}
