package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/store"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and export stored leads",
}

// -- leads list --

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		leads, err := st.ListRecentLeads(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "leads list")
		}
		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}

		format, _ := cmd.Flags().GetString("output")
		if format == "table" {
			formatLeadsList(os.Stdout, leads)
			return nil
		}
		return writeStructured(os.Stdout, format, leads)
	},
}

// -- leads show --

var leadsShowCmd = &cobra.Command{
	Use:   "show <lead-id>",
	Short: "Show full details of a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		lead, err := st.GetLead(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "leads show")
		}
		return writeStructured(os.Stdout, "json", lead)
	},
}

// -- leads export --

var leadsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recent leads to an xlsx file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("file")
		limit, _ := cmd.Flags().GetInt("limit")
		minScore, _ := cmd.Flags().GetInt("min-score")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		leads, err := st.ListRecentLeads(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "leads export")
		}
		products, err := st.ListProducts(ctx)
		if err != nil {
			return eris.Wrap(err, "leads export")
		}
		names := make(map[string]string, len(products))
		for _, p := range products {
			names[p.ID] = p.Name
		}

		opts := export.XLSXOptions{ProductNames: names, MinScore: minScore}
		if path == "-" {
			return export.WriteXLSX(cmd.OutOrStdout(), leads, opts)
		}
		if err := export.SaveXLSX(path, leads, opts); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Exported leads to %s\n", path)
		return nil
	},
}

// -- leads rescore --

var leadsRescoreCmd = &cobra.Command{
	Use:   "rescore <lead-id>",
	Short: "Score a stored lead again against its product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, config.ModeEmail)
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Store.GetLead(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "leads rescore")
		}
		if lead.InterestedProductID == "" {
			return eris.Errorf("leads rescore: lead %s has no product", lead.ID)
		}
		product, err := env.Store.GetProduct(ctx, lead.InterestedProductID)
		if err != nil {
			return eris.Wrap(err, "leads rescore")
		}

		ev, err := env.Evaluator.Rescore(ctx, *lead, *product, env.Store)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s: %d -> %d\n%s\n", lead.CompanyName, lead.MatchScore, ev.Score, ev.Reason)
		return nil
	},
}

func init() {
	leadsListCmd.Flags().Int("limit", store.DefaultListLimit, "max number of leads to display")
	leadsListCmd.Flags().StringP("output", "o", "table", "output format: table, json or yaml")

	leadsExportCmd.Flags().String("file", "leads.xlsx", "destination xlsx file, or - for stdout")
	leadsExportCmd.Flags().Int("limit", 1000, "max number of leads to export")
	leadsExportCmd.Flags().Int("min-score", 0, "only export leads scoring at least this")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsShowCmd)
	leadsCmd.AddCommand(leadsExportCmd)
	leadsCmd.AddCommand(leadsRescoreCmd)
	rootCmd.AddCommand(leadsCmd)
}
