package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "search", "product", "leads", "email", "check"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "leadgen", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestSearchCommand_Flags(t *testing.T) {
	for name, def := range map[string]string{
		"product":          "",
		"location":         "Italia",
		"limit":            "10",
		"min-score":        "50",
		"include-province": "false",
		"output":           "table",
	} {
		flag := searchCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "search command should have --%s flag", name)
		assert.Equal(t, def, flag.DefValue, "--%s default", name)
	}
}

func TestLeadsCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range leadsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "export", "rescore"} {
		assert.True(t, names[name], "expected leads subcommand %q", name)
	}

	flag := leadsExportCmd.Flags().Lookup("file")
	require.NotNil(t, flag)
	assert.Equal(t, "leads.xlsx", flag.DefValue)
}

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestSearchRequestFromFlags(t *testing.T) {
	withConfig(t, &config.Config{Search: config.SearchConfig{
		DefaultLocation: "Lombardia",
		DefaultLimit:    20,
		DefaultMinScore: 60,
	}})

	c := &cobra.Command{Use: "search"}
	c.Flags().String("product", "", "")
	c.Flags().String("location", "Italia", "")
	c.Flags().Int("limit", 10, "")
	c.Flags().Int("min-score", 50, "")
	c.Flags().Bool("include-province", false, "")
	require.NoError(t, c.Flags().Parse([]string{"--product", "p1", "--min-score", "0", "--include-province"}))

	req, err := searchRequestFromFlags(c)
	require.NoError(t, err)
	assert.Equal(t, "p1", req.ProductID)
	assert.Equal(t, "Lombardia", req.Location)
	assert.Equal(t, 20, req.Limit)
	assert.Equal(t, 0, req.MinScore)
	assert.True(t, req.IncludeProvince)
	assert.NotEmpty(t, req.JobID)
}

func TestSearchRequestFromFlags_Errors(t *testing.T) {
	withConfig(t, nil)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing product", args: nil, want: "--product is required"},
		{name: "bad limit", args: []string{"--product", "p1", "--limit", "0"}, want: "--limit must be at least 1"},
		{name: "bad score", args: []string{"--product", "p1", "--min-score", "150"}, want: "--min-score must be between 0 and 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &cobra.Command{Use: "search"}
			c.Flags().String("product", "", "")
			c.Flags().String("location", "Italia", "")
			c.Flags().Int("limit", 10, "")
			c.Flags().Int("min-score", 50, "")
			c.Flags().Bool("include-province", false, "")
			require.NoError(t, c.Flags().Parse(tt.args))

			_, err := searchRequestFromFlags(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProductFromFlags(t *testing.T) {
	c := &cobra.Command{Use: "create"}
	c.Flags().String("name", "", "")
	c.Flags().String("description", "", "")
	c.Flags().StringSlice("keywords", nil, "")
	c.Flags().String("ai-description", "", "")
	require.NoError(t, c.Flags().Parse([]string{
		"--name", "  Etichette  ",
		"--keywords", "etichette, ,packaging",
		"--description", "Etichette adesive",
	}))

	p, err := productFromFlags(c)
	require.NoError(t, err)
	assert.Equal(t, "Etichette", p.Name)
	assert.Equal(t, "etichette, packaging", p.TargetKeywords)
	assert.Equal(t, "Etichette adesive", p.Description)
	assert.Equal(t, []string{"etichette", "packaging"}, p.Keywords())
}

func TestProductFromFlags_RequiresName(t *testing.T) {
	c := &cobra.Command{Use: "create"}
	c.Flags().String("name", "", "")
	c.Flags().String("description", "", "")
	c.Flags().StringSlice("keywords", nil, "")
	c.Flags().String("ai-description", "", "")

	_, err := productFromFlags(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name is required")
}
