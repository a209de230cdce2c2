package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/search"
)

// writeStructured renders v as indented JSON or YAML.
func writeStructured(out io.Writer, format string, v any) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("unsupported output format %q (want json or yaml)", format)
	}
}

// formatSearchResult writes a short human summary of a finished search.
func formatSearchResult(out io.Writer, res search.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCORE\tCOMPANY\tWEBSITE\tEMAIL\tPHONE")
	_, _ = fmt.Fprintln(w, "-----\t-------\t-------\t-----\t-----")
	for _, l := range res.Accepted {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", l.Score, truncate(l.CompanyName, 30), l.Website, l.Email, l.Phone)
	}
	_ = w.Flush()

	s := res.Stats
	_, _ = fmt.Fprintf(out, "\nAccepted %d, below threshold %d, discarded %d of %d analysed over %d pages (avg score %d)\n",
		s.Accepted, s.BelowThreshold, s.Discarded, s.Analyzed, s.PagesSearched, s.AvgScore)
	if res.StoppedReason != "" {
		_, _ = fmt.Fprintf(out, "Stopped: %s\n", res.StoppedReason)
	}
	if s.Warning != "" {
		_, _ = fmt.Fprintln(out, s.Warning)
	}
}

// formatLeadsList writes a tabular list of leads to w.
func formatLeadsList(out io.Writer, leads []model.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCOMPANY\tSCORE\tEMAIL\tWEBSITE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-------\t-----\t-----\t-------\t-------")
	for _, l := range leads {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			truncateID(l.ID),
			truncate(l.CompanyName, 30),
			l.MatchScore,
			l.Email,
			l.Website,
			l.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatProductsList writes a tabular list of products to w.
func formatProductsList(out io.Writer, products []model.Product) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tKEYWORDS")
	_, _ = fmt.Fprintln(w, "--\t----\t--------")
	for _, p := range products {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, truncate(p.Name, 30), truncate(p.TargetKeywords, 50))
	}
	_ = w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
