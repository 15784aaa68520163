package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"stockroom/internal/app"
	"stockroom/internal/config"
	"stockroom/internal/logger"
)

const fetchTimeout = 30 * time.Second

func main() {
	var csvSource, pdfOut string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the tables, seed the admin and optionally load a spreadsheet",
		Long: "seed prepares the database configured by DB_DRIVER/DB_DSN.\n" +
			"With --csv it appends every row of a local file or http(s) URL.\n" +
			"With --pdf it writes the stock report afterwards.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), csvSource, pdfOut)
		},
	}
	cmd.Flags().StringVar(&csvSource, "csv", "", "CSV file path or http(s) URL to import")
	cmd.Flags().StringVar(&pdfOut, "pdf", "", "write the stock report to this file")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, csvSource, pdfOut string) error {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	log.Info().Str("db_driver", cfg.DBDriver).Msg("starting seed")

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	log.Info().Str("admin", cfg.AdminUsername).Msg("tables ready")

	if csvSource != "" {
		body, err := openSource(ctx, csvSource)
		if err != nil {
			return err
		}
		defer body.Close()

		count, err := a.CSVService.Import(ctx, body)
		if err != nil {
			return fmt.Errorf("import %s: %w", csvSource, err)
		}
		log.Info().Int("count", count).Str("source", csvSource).Msg("seed completed")
	}

	if pdfOut != "" {
		doc, err := a.ReportService.StockPDF(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(pdfOut, doc.Data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Info().Str("file", pdfOut).Int("pages", doc.Pages).Msg("stock report written")
	}
	return nil
}

// openSource opens a local file, or fetches src when it is an http(s) URL.
func openSource(ctx context.Context, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		return f, nil
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to fetch csv: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("csv source returned status code: %d", resp.StatusCode)
	}
	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
