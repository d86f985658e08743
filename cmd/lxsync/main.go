package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lxsync/internal/logging"
	"lxsync/internal/service"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newCommand().Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "lxsync:", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	forceRefresh := &cli.BoolFlag{
		Name:  "force-refresh",
		Usage: "ignore the cached access token and request a new one",
	}

	return &cli.Command{
		Name:  "lxsync",
		Usage: "sync Lingxing ERP shops and FBA inventory into MySQL",
		Commands: []*cli.Command{
			{
				Name:  "stores",
				Usage: "fetch Amazon shops and upsert the stores table",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page-size", Usage: "shop listing page size (clamped to 20..200)"},
					forceRefresh,
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runJob(ctx, cmd, func(a *app, opts service.Options) *service.RunReport {
						if n := cmd.Int("page-size"); n > 0 {
							opts.PageSize = n
						}
						return a.runner.SyncStores(ctx, opts)
					})
				},
			},
			{
				Name:  "inventory",
				Usage: "fetch FBA inventory detail and upsert inventory_fba_current",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "length", Usage: "inventory page size (clamped to 20..200)"},
					&cli.StringSliceFlag{Name: "filter", Usage: "extra request body field as key=value, repeatable"},
					forceRefresh,
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					filters, err := parseFilters(cmd.StringSlice("filter"))
					if err != nil {
						return err
					}
					return runJob(ctx, cmd, func(a *app, opts service.Options) *service.RunReport {
						if n := cmd.Int("length"); n > 0 {
							opts.Length = n
						}
						opts.Filters = filters
						return a.runner.SyncInventory(ctx, opts)
					})
				},
			},
			{
				Name:  "token",
				Usage: "print the (masked) access token and its expiry",
				Flags: []cli.Flag{forceRefresh},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := newApp(ctx, false)
					if err != nil {
						return err
					}
					defer a.Close()

					tok, err := a.api.Token(ctx, cmd.Bool("force-refresh"))
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.Root().Writer, "access_token=%s expires_at=%s\n",
						logging.Mask(tok.AccessToken), tok.Expiry().Format(time.RFC3339))
					return nil
				},
			},
		},
	}
}

// runJob builds the application, runs one sync and turns a failed run into
// a non-zero exit. The run row has been written by the time it returns.
func runJob(ctx context.Context, cmd *cli.Command, run func(*app, service.Options) *service.RunReport) error {
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := a.options()
	opts.ForceRefresh = cmd.Bool("force-refresh")

	report := run(a, opts)
	if report.Failed() {
		return fmt.Errorf("%s failed: %s", report.Run.JobName, report.Run.Note)
	}
	fmt.Fprintf(cmd.Root().Writer, "%s: %s\n", report.Run.JobName, report.Run.Note)
	return nil
}

// parseFilters turns key=value pairs into body fields.
func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --filter %q, want key=value", p)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
