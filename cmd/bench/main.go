// Command bench measures cold vs warm list performance of the index
// cache against a generated site.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vellumkit/vellum"
)

func main() {
	count := flag.Int("count", 1000, "Number of posts to generate")
	keep := flag.Bool("keep", false, "Keep the benchmark site after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "vellum_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	fmt.Printf("Generating %d posts in %s...\n", *count, benchDir)
	startGen := time.Now()

	// Direct file writes simulate an existing site; going through the
	// service here would just benchmark generation.
	for i := 0; i < *count; i++ {
		content := fmt.Sprintf("---\ntitle: Post %d\ncategory: benchmark\nkeywords: [benchmark, test]\n---\n# Post %d\n\n```elixir\n:ok\n```\n", i, i)
		filename := filepath.Join(benchDir, fmt.Sprintf("post_%d.md", i))
		if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Gitless keeps git overhead out of the parsing/IO measurement.
	service, err := vellum.New(benchDir,
		vellum.WithLogger(logger),
		vellum.WithAutoInit(true),
		vellum.WithVersioning(false),
	)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()

	// Run 1: cold, populates the index cache.
	fmt.Println("Running List (Run 1 - Cold)...")
	startList := time.Now()
	list, err := service.ListPosts(ctx)
	if err != nil {
		panic(err)
	}
	duration := time.Since(startList)
	fmt.Printf("Run 1 Result: %v (Items: %d)\n", duration, len(list))

	// Run 2: a fresh service instance, so only the persistent cache
	// (.vellum/index.json) can make this faster.
	service2, err := vellum.New(benchDir,
		vellum.WithLogger(logger),
		vellum.WithAutoInit(true),
		vellum.WithVersioning(false),
	)
	if err != nil {
		panic(err)
	}

	fmt.Println("Running List (Run 2 - Warm)...")
	startList2 := time.Now()
	list2, err := service2.ListPosts(ctx)
	if err != nil {
		panic(err)
	}
	duration2 := time.Since(startList2)
	fmt.Printf("Run 2 Result: %v (Items: %d)\n", duration2, len(list2))

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d posts):\n", *count)
	fmt.Printf("  Cold: %v\n", duration)
	fmt.Printf("  Warm: %v\n", duration2)
	fmt.Printf("--------------------------------------------------\n")
}
