package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/jobs"
	"github.com/sells-group/leadgen-cli/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a lead search for a product and wait for the result",
	Long:  "Runs the round-robin search in the foreground. Ctrl-C stops the search gracefully and prints what was found so far.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, config.ModeSearch)
		if err != nil {
			return err
		}
		defer env.Close()

		req, err := searchRequestFromFlags(cmd)
		if err != nil {
			return err
		}

		res := env.Orchestrator.Run(ctx, req)

		job, err := env.Registry.Get(req.JobID)
		if err != nil {
			return eris.Wrap(err, "search")
		}
		if job.Status == jobs.StatusError {
			return eris.Errorf("search failed: %s", job.Progress)
		}

		format, _ := cmd.Flags().GetString("output")
		if format == "table" {
			formatSearchResult(os.Stdout, res)
			return nil
		}
		return writeStructured(os.Stdout, format, res)
	},
}

func searchRequestFromFlags(cmd *cobra.Command) (search.Request, error) {
	productID, _ := cmd.Flags().GetString("product")
	if productID == "" {
		return search.Request{}, eris.New("--product is required")
	}
	location, _ := cmd.Flags().GetString("location")
	limit, _ := cmd.Flags().GetInt("limit")
	minScore, _ := cmd.Flags().GetInt("min-score")
	includeProvince, _ := cmd.Flags().GetBool("include-province")

	if !cmd.Flags().Changed("location") && cfg != nil && cfg.Search.DefaultLocation != "" {
		location = cfg.Search.DefaultLocation
	}
	if !cmd.Flags().Changed("limit") && cfg != nil && cfg.Search.DefaultLimit > 0 {
		limit = cfg.Search.DefaultLimit
	}
	if !cmd.Flags().Changed("min-score") && cfg != nil {
		minScore = cfg.Search.DefaultMinScore
	}
	if limit < 1 {
		return search.Request{}, eris.New("--limit must be at least 1")
	}
	if minScore < 0 || minScore > 100 {
		return search.Request{}, eris.New("--min-score must be between 0 and 100")
	}

	return search.Request{
		ProductID:       productID,
		Location:        location,
		Limit:           limit,
		MinScore:        minScore,
		JobID:           uuid.NewString(),
		IncludeProvince: includeProvince,
	}, nil
}

func init() {
	searchCmd.Flags().String("product", "", "product id to prospect for (required)")
	searchCmd.Flags().String("location", search.DefaultLocation, "city or area to search in")
	searchCmd.Flags().Int("limit", search.DefaultLimit, "number of qualified leads to find")
	searchCmd.Flags().Int("min-score", search.DefaultMinScore, "minimum AI score for a lead to be saved")
	searchCmd.Flags().Bool("include-province", false, "also accept addresses in the city's province")
	searchCmd.Flags().StringP("output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(searchCmd)
}
