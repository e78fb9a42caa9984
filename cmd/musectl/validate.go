package main

import (
	"fmt"

	"github.com/MuseLabAI/muse-mvp/engine/catalog"
	"github.com/MuseLabAI/muse-mvp/engine/domain"
	"github.com/MuseLabAI/muse-mvp/pkg/fn"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check catalog files for structural problems",
	Long: `Load every catalog file matching the glob and report what was found.
Unknown categories are flagged: items with one are never returned when a
prompt carries category intent.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	specs, err := catalog.LoadGlob(catalogGlob)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	categories := fn.Unique(fn.Map(specs, func(s catalog.ItemSpec) string { return s.Category }))
	unknown := fn.Filter(specs, func(s catalog.ItemSpec) bool {
		for known := range domain.KnownCategories {
			if domain.EqualCategory(s.Category, known) {
				return false
			}
		}
		return true
	})

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "projects:   %d\n", len(specs))
	fmt.Fprintf(out, "categories: %v\n", categories)
	for _, s := range unknown {
		fmt.Fprintf(out, "warning: %q has unrecognized category %q\n", s.Title, s.Category)
	}
	return nil
}
