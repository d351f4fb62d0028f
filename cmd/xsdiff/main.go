package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/emenda-labs/xsdiff/core/batch"
	"github.com/emenda-labs/xsdiff/core/cli"
	"github.com/emenda-labs/xsdiff/drivers/xsd"
	"github.com/emenda-labs/xsdiff/drivers/xsd/xsdiff"
	"github.com/emenda-labs/xsdiff/pkg/assets"
	"github.com/emenda-labs/xsdiff/pkg/listing"
	"github.com/emenda-labs/xsdiff/pkg/reportwriter"
)

const version = "1.2.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := func(ctx context.Context, opts cli.Options) error {
		cfg := opts.Config
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
		slog.SetDefault(logger)

		profile, err := xsdiff.ParseProfile(cfg.Profile)
		if err != nil {
			return err
		}
		writers, err := reportwriter.ForFormats(cfg.Formats)
		if err != nil {
			return err
		}
		bundler, err := assets.NewBundler()
		if err != nil {
			return err
		}
		driver, err := xsd.NewDriver(xsdiff.Options{Profile: profile}, cfg.CacheSize, logger)
		if err != nil {
			return err
		}

		runner := batch.NewRunner(driver, writers, bundler, listing.NewReader(logger), batch.WithLogger(logger))
		res, err := runner.Run(ctx, batch.Request{
			First:     opts.First,
			Second:    opts.Second,
			ReportDir: opts.ReportDir,
			Workers:   cfg.Workers,
			KeepGoing: cfg.KeepGoing,
		})
		if err != nil {
			if res != nil && res.Failed() > 0 {
				fmt.Fprintf(os.Stderr, "%d of %d comparisons failed\n", res.Failed(), len(res.Jobs))
			}
			return err
		}

		fmt.Println("done")
		return nil
	}

	root := cli.NewRootCmd(version, run)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var usage *cli.UsageError
		if errors.As(err, &usage) {
			root.SetOut(os.Stderr)
			_ = root.Usage()
			os.Exit(2)
		}
		os.Exit(1)
	}
}
