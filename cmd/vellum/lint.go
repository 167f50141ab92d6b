package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/vellumkit/vellum"
	"github.com/vellumkit/vellum/pkg/lint"
)

var lintCmd = &cobra.Command{
	Use:   "lint [glob...]",
	Short: "Check posts for authoring mistakes",
	Long: `Lint posts: missing or empty front-matter keys, unterminated code
fences, untagged code blocks. Glob arguments restrict which slugs are
checked ('series/**'). Exits non-zero when error-grade issues are found.`,
	Run: func(cmd *cobra.Command, args []string) {
		for _, pattern := range args {
			if !doublestar.ValidatePattern(pattern) {
				fatal("Invalid glob pattern", fmt.Errorf("%q", pattern))
			}
		}

		root, manifest, err := resolveSite()
		if err != nil {
			fatal("Failed to open site", err)
		}

		opts := []vellum.Option{
			vellum.WithMustExist(true),
			vellum.WithLogger(slog.Default()),
		}
		if noGit {
			opts = append(opts, vellum.WithVersioning(false))
		}
		repo, err := vellum.Init(contentDir(root, manifest), opts...)
		if err != nil {
			fatal("Failed to open site", err)
		}

		checker := lint.New(manifest.Required...)
		issues, err := checker.CheckAll(context.Background(), repo)
		if err != nil {
			fatal("Lint failed", err)
		}

		shown := 0
		failed := false
		for _, issue := range issues {
			if !matchesAny(issue.Slug, args) {
				continue
			}
			fmt.Println(issue)
			shown++
			if issue.Severity == lint.SeverityError {
				failed = true
			}
		}
		if shown == 0 {
			fmt.Println("No issues found.")
		}
		if failed {
			os.Exit(1)
		}
	},
}

func matchesAny(slug string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, slug); ok {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(lintCmd)
}
