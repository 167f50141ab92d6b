package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vellumkit/vellum"
	"github.com/vellumkit/vellum/internal/platform"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a vellum site",
	Long: `Initialize a new site: writes a vellum.yaml manifest, creates the
content directory, and runs 'git init' unless --no-git is set.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			fatal("Failed to resolve path", err)
		}
		if err := os.MkdirAll(abs, 0755); err != nil {
			fatal("Failed to create site directory", err)
		}

		manifestPath := filepath.Join(abs, "vellum.yaml")
		if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
			if err := writeDefaultManifest(manifestPath); err != nil {
				fatal("Failed to write manifest", err)
			}
		}

		manifest, err := platform.LoadManifest(abs)
		if err != nil {
			fatal("Failed to load manifest", err)
		}

		_, err = vellum.Init(filepath.Join(abs, manifest.ContentDir),
			vellum.WithAutoInit(true),
			vellum.WithVersioning(!noGit),
			vellum.WithLogger(slog.Default()),
		)
		if err != nil {
			fatal("Failed to initialize site", err)
		}

		fmt.Println("Initialized vellum site in", abs)
	},
}

func writeDefaultManifest(path string) error {
	def := platform.DefaultManifest()
	data, err := yaml.Marshal(map[string]any{
		"content_dir":    def.ContentDir,
		"default_format": def.DefaultFormat,
		"default_layout": def.DefaultLayout,
		"comments":       def.Comments,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func init() {
	rootCmd.AddCommand(initCmd)
}
