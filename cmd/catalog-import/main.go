// Command catalog-import loads a catalog workbook into the configured
// SQLite or graph catalog.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/agenthands/boqmatch/internal/backend"
	"github.com/agenthands/boqmatch/internal/config"
	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/importer"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(context.Background(), os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("catalog-import", flag.ContinueOnError)
	fs.SetOutput(out)
	xlsxPath := fs.String("xlsx", "", "workbook with entries and offers sheets")
	target := fs.String("target", "", "sqlite or graph (defaults to catalog.source)")
	dryRun := fs.Bool("dry-run", false, "validate the workbook without writing it")
	template := fs.String("template", "", "write an empty workbook with the expected headers to this path and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *template != "" {
		if err := importer.Write(*template, nil, nil); err != nil {
			return err
		}
		fmt.Fprintf(out, "template written to %s\n", *template)
		return nil
	}
	if *xlsxPath == "" {
		return errors.New("-xlsx is required")
	}

	src := importer.NewXLSXSource(*xlsxPath)
	entries, offers, err := src.Load(ctx)
	if err != nil {
		return err
	}
	snap := catalog.Build(src.Name(), entries, offers)
	fmt.Fprintf(out, "read %d entries and %d offers, %d usable approved offers\n", len(entries), len(offers), snap.OfferCount())
	for _, issue := range snap.Issues {
		fmt.Fprintf(out, "  rejected %s: %s\n", issue.RecordID, issue.Reason)
	}
	if *dryRun {
		return nil
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if *target != "" {
		cfg.Catalog.Source = *target
	}
	if cfg.Catalog.Source == "xlsx" {
		return errors.New("the import target must be sqlite or graph")
	}

	b, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close(ctx)

	// Every record is written, rejected ones included, so the stored
	// catalog mirrors the workbook and rejections show up again on load.
	if err := b.Sink.Save(ctx, entries, offers); err != nil {
		return err
	}
	logger.Info("catalog imported", "target", b.Source.Name(), "entries", len(entries), "offers", len(offers))
	return nil
}
