package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vellumkit/vellum"
	"github.com/vellumkit/vellum/pkg/core"
)

var (
	newCategory string
	newKeywords []string
	newDated    bool
)

// newCmd scaffolds a draft post from a title.
var newCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Scaffold a new post from a title",
	Long: `Create a draft post. The slug is derived from the title, and the
front-matter is seeded from the site manifest defaults.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		title := args[0]

		service, manifest, _, err := openService()
		if err != nil {
			fatal("Failed to open site", err)
		}

		defaults := manifest.Defaults()
		if newCategory != "" {
			defaults.Category = newCategory
		}
		if len(newKeywords) > 0 {
			defaults.Keywords = newKeywords
		}

		draft := core.NewDraft(title, defaults)
		if newDated {
			draft.Slug = core.DatedSlug(time.Now(), title)
		}

		ctx := context.WithValue(context.Background(), core.ChangeReasonKey,
			vellum.FormatChangeReason(vellum.CommitTypeFeat, "posts", fmt.Sprintf("add %s", draft.Slug), ""))

		if err := service.SavePost(ctx, draft.Slug, draft.Body, draft.Metadata); err != nil {
			fatal("Failed to save draft", err)
		}

		fmt.Printf("Created post '%s'\n", draft.Slug)
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVar(&newCategory, "category", "", "Post category")
	newCmd.Flags().StringSliceVar(&newKeywords, "keywords", nil, "Post keywords")
	newCmd.Flags().BoolVar(&newDated, "dated", false, "Prefix the slug with today's date (YYYY-MM-DD-)")
}
