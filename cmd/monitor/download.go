package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/feed"
	"github.com/rxtech-lab/argo-setups/internal/history"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download 1-minute session bars to a Parquet or CSV file for warm-up or replay",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "symbol", Usage: "Symbol to download (defaults to underlying_symbol)"},
			&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: "Data provider (polygon, binance)"},
			&cli.TimestampFlag{
				Name:  "from",
				Usage: "First session in `YYYY-MM-DD` format (defaults to today)",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:  "to",
				Usage: "Last session in `YYYY-MM-DD` format (defaults to from)",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (.parquet or .csv)", Required: true},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	env, err := loadEnvironment(cmd, false)
	if err != nil {
		return err
	}
	defer env.log.Sync() //nolint:errcheck

	loc, err := env.cfg.LoadLocation()
	if err != nil {
		return err
	}

	symbol := env.cfg.UnderlyingSymbol
	if cmd.IsSet("symbol") {
		symbol = cmd.String("symbol")
	}

	provider := env.cfg.Feed.Provider
	if cmd.IsSet("provider") {
		provider = feed.Provider(cmd.String("provider"))
	}

	from := time.Now().In(loc)
	if cmd.IsSet("from") {
		from = cmd.Timestamp("from")
	}

	to := from
	if cmd.IsSet("to") {
		to = cmd.Timestamp("to")
	}

	days, err := sessionDays(from, to, loc)
	if err != nil {
		return err
	}

	fetcher, err := feed.NewFetcher(provider, os.Getenv(apiKeyEnv))
	if err != nil {
		return err
	}

	writer, err := history.NewWriter(cmd.String("out"), env.log)
	if err != nil {
		return err
	}
	defer writer.Close()

	count, err := download(ctx, fetcher, writer, symbol, days, env.out, env.log)
	if err != nil {
		return err
	}

	path, err := writer.Finalize()
	if err != nil {
		return err
	}

	fmt.Fprintf(env.out, "Wrote %d bars of %s to %s\n", count, symbol, path)

	return nil
}

// sessionDays lists the calendar days from..to in loc, both included.
func sessionDays(from, to time.Time, loc *time.Location) ([]time.Time, error) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc)

	if end.Before(start) {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "to (%s) is before from (%s)", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	var days []time.Time
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}

	return days, nil
}

// download fetches every day's session into w and returns the number of bars written.
func download(ctx context.Context, fetcher feed.Fetcher, w *history.Writer, symbol string, days []time.Time, out io.Writer, log *logger.Logger) (int, error) {
	if err := w.Initialize(); err != nil {
		return 0, err
	}

	bar := progressbar.NewOptions(len(days),
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", symbol)),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
	)

	for _, day := range days {
		bars, err := fetcher.FetchSession(ctx, symbol, day)
		if err != nil {
			return w.Count(), err
		}

		for _, b := range bars {
			if b.Symbol == "" {
				b.Symbol = symbol
			}

			if err := w.Write(b); err != nil {
				return w.Count(), err
			}
		}

		log.Debug("Fetched session", zap.Time("day", day), zap.Int("bars", len(bars)))
		_ = bar.Add(1)
	}

	return w.Count(), nil
}
