package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Manage the products leads are searched for",
}

var productCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		p, err := productFromFlags(cmd)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		created, err := st.CreateProduct(ctx, p)
		if err != nil {
			return eris.Wrap(err, "product create")
		}

		fmt.Fprintf(os.Stdout, "Created product %s (%s)\n", created.ID, created.Name)
		fmt.Fprintf(os.Stdout, "Search keywords: %s\n", strings.Join(created.Keywords(), ", "))
		return nil
	},
}

var productListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		products, err := st.ListProducts(ctx)
		if err != nil {
			return eris.Wrap(err, "product list")
		}
		if len(products) == 0 {
			fmt.Fprintln(os.Stderr, "No products found.")
			return nil
		}

		format, _ := cmd.Flags().GetString("output")
		if format == "table" {
			formatProductsList(os.Stdout, products)
			return nil
		}
		return writeStructured(os.Stdout, format, products)
	},
}

func productFromFlags(cmd *cobra.Command) (model.Product, error) {
	name, _ := cmd.Flags().GetString("name")
	if strings.TrimSpace(name) == "" {
		return model.Product{}, eris.New("--name is required")
	}
	description, _ := cmd.Flags().GetString("description")
	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	aiDescription, _ := cmd.Flags().GetString("ai-description")

	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			cleaned = append(cleaned, kw)
		}
	}

	return model.Product{
		Name:           strings.TrimSpace(name),
		Description:    description,
		TargetKeywords: strings.Join(cleaned, ", "),
		AIDescription:  aiDescription,
	}, nil
}

func init() {
	productCreateCmd.Flags().String("name", "", "product name (required)")
	productCreateCmd.Flags().String("description", "", "product description")
	productCreateCmd.Flags().StringSlice("keywords", nil, "comma-separated search keywords")
	productCreateCmd.Flags().String("ai-description", "", "detailed description used when scoring")

	productListCmd.Flags().StringP("output", "o", "table", "output format: table, json or yaml")

	productCmd.AddCommand(productCreateCmd)
	productCmd.AddCommand(productListCmd)
	rootCmd.AddCommand(productCmd)
}
