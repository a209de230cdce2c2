package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/config"
)

// connCheck is one connectivity check.
type connCheck struct {
	name string
	run  func(ctx context.Context) error
}

type connResult struct {
	name    string
	err     error
	elapsed time.Duration
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity to the database, Anthropic and SerpAPI",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		env, err := initEnv(ctx, config.ModeSearch)
		if err != nil {
			return err
		}
		defer env.Close()

		checks := []connCheck{
			{name: "store", run: env.Store.Ping},
			{name: "anthropic", run: func(ctx context.Context) error {
				_, err := env.Anthropic.ListModels(ctx)
				return err
			}},
			{name: "serpapi", run: func(ctx context.Context) error {
				_, err := env.SerpAPI.MapsSearch(ctx, "caffè a Milano", 0)
				return err
			}},
		}

		results := runChecks(ctx, checks)
		return reportChecks(os.Stdout, results)
	},
}

// runChecks runs every check concurrently and returns results in input order.
func runChecks(ctx context.Context, checks []connCheck) []connResult {
	results := make([]connResult, len(checks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		g.Go(func() error {
			start := time.Now()
			err := c.run(gctx)
			mu.Lock()
			results[i] = connResult{name: c.name, err: err, elapsed: time.Since(start)}
			mu.Unlock()
			return nil // a failed check must not cancel the others
		})
	}
	_ = g.Wait()
	return results
}

func reportChecks(out io.Writer, results []connResult) error {
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(out, "FAIL  %-10s %s\n", r.name, r.err)
			continue
		}
		fmt.Fprintf(out, "OK    %-10s %s\n", r.name, r.elapsed.Round(time.Millisecond))
	}
	if failed > 0 {
		return eris.Errorf("check: %d of %d checks failed", failed, len(results))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
