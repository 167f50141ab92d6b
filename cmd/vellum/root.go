package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vellumkit/vellum"
	"github.com/vellumkit/vellum/internal/platform"
	"github.com/vellumkit/vellum/pkg/core"
)

var (
	verbose  bool
	siteFlag string
	noGit    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vellum",
	Short: "A toolkit for blog posts stored as front-matter + markdown files",
	Long: `Vellum manages a directory of blog posts as a transactional database.
Each post is a plain file: YAML, TOML or JSON front-matter up top, then a
markdown body that may interleave prose with fenced code blocks. Writes
are committed to git unless the site is gitless.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A .env next to the invocation is a convenience, not a requirement.
		_ = godotenv.Load()

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&siteFlag, "site", "", "Site root (default: walk up from the working directory)")
	rootCmd.PersistentFlags().BoolVar(&noGit, "no-git", false, "Operate without git versioning")
}

// resolveSite locates the site root and loads its manifest. With --site
// the given path is trusted; otherwise the root is discovered by walking
// upward from the working directory.
func resolveSite() (string, platform.Manifest, error) {
	root := siteFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", platform.Manifest{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		root, err = vellum.FindSiteRoot(wd)
		if err != nil {
			return "", platform.Manifest{}, err
		}
	}

	manifest, err := platform.LoadManifest(root)
	if err != nil {
		return "", platform.Manifest{}, err
	}
	return root, manifest, nil
}

// contentDir resolves where posts live. A manifest makes content_dir
// authoritative; without one, an existing content/ subdirectory is used
// and a bare repository falls back to the root itself.
func contentDir(root string, m platform.Manifest) string {
	dir := filepath.Join(root, m.ContentDir)
	if hasManifest(root) {
		return dir
	}
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return root
}

func hasManifest(root string) bool {
	for _, name := range []string{"vellum.yaml", "vellum.toml", "vellum.json"} {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			return true
		}
	}
	return false
}

// openService resolves the site and builds a service over its content
// directory. Extra options come after the defaults so callers can
// override them.
func openService(opts ...vellum.Option) (*core.Service, platform.Manifest, string, error) {
	root, manifest, err := resolveSite()
	if err != nil {
		return nil, platform.Manifest{}, "", err
	}

	format, err := manifest.Format()
	if err != nil {
		return nil, platform.Manifest{}, "", err
	}

	baseOpts := []vellum.Option{
		vellum.WithMustExist(true),
		vellum.WithLogger(slog.Default()),
		vellum.WithDefaultFormat(format),
	}
	// Without --no-git, versioning is auto-detected from the site.
	if noGit {
		baseOpts = append(baseOpts, vellum.WithVersioning(false))
	}
	svc, err := vellum.New(contentDir(root, manifest), append(baseOpts, opts...)...)
	if err != nil {
		return nil, platform.Manifest{}, "", err
	}
	return svc, manifest, root, nil
}
