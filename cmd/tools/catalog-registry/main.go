// cmd/tools/catalog-registry/main.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"storefront-workers/internal/catalog/filters"
	"storefront-workers/pkg/registry"
)

var registryPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalog-registry",
		Short:         "Inspect and check the storefront filter catalog",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&registryPath, "path", "configs/catalog-registry.json", "Path to registry file")

	root.AddCommand(newValidateCmd(), newListCmd(), newTranslateCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report structural errors and operators the translator would drop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(registryPath)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}

			out := cmd.OutOrStdout()
			issues := reg.Validate()
			for _, issue := range issues {
				fmt.Fprintf(out, "%-7s %s: %s\n", issue.Severity, issue.Path, issue.Message)
			}
			if registry.HasErrors(issues) {
				return fmt.Errorf("registry validation failed with %d issue(s)", len(issues))
			}
			fmt.Fprintln(out, "Registry validation passed.")
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [category]",
		Short: "List categories, sections and their filters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(registryPath)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			only := ""
			if len(args) == 1 {
				only = args[0]
			}
			return listCategories(cmd.OutOrStdout(), reg, only)
		},
	}
}

func listCategories(out io.Writer, reg *registry.CatalogRegistry, only string) error {
	found := false
	for _, c := range reg.Categories {
		if only != "" && !strings.EqualFold(c.ID, only) {
			continue
		}
		found = true
		fmt.Fprintf(out, "%s (%s)\n", c.ID, c.Name)
		for _, s := range c.Sections {
			fmt.Fprintf(out, "  %s (%s)\n", s.ID, s.Name)
			for _, f := range s.Filters {
				fmt.Fprintf(out, "    %-16s %-20s %s/%s\n", f.ID, f.Column, f.OperatorMode, f.Operator)
			}
		}
	}
	if only != "" && !found {
		return fmt.Errorf("category %s not found", only)
	}
	return nil
}

func newTranslateCmd() *cobra.Command {
	var category, section, state string

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate a filter state JSON into backend query parameters",
		Example: `  catalog-registry translate --category celulares \
    --state '{"marca":{"values":["Samsung"]},"precio":{"ranges":["Menos de $500.000"]}}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(registryPath)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			configs, ok := reg.Lookup(category, section)
			if !ok {
				return fmt.Errorf("no filters registered for %s", strings.Trim(category+"/"+section, "/"))
			}

			var st filters.State
			if err := json.Unmarshal([]byte(state), &st); err != nil {
				return fmt.Errorf("invalid --state: %w", err)
			}

			result := filters.NewTranslator(nil).Translate(configs, st)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"query":   result.Query(),
				"dropped": result.Dropped,
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Category id")
	cmd.Flags().StringVar(&section, "section", "", "Section id (defaults to the first section)")
	cmd.Flags().StringVar(&state, "state", "{}", "Filter state as JSON")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}
