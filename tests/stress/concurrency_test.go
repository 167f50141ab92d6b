package stress

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vellumkit/vellum"
	"github.com/vellumkit/vellum/pkg/core"
	"github.com/vellumkit/vellum/pkg/git"
)

// TestStressExternalVsInternal runs a noisy-neighbor scenario: an external
// actor rewrites files while the service keeps saving and a watcher
// consumes the resulting events. The pass criteria are no panic, no
// watcher wedge, and a clean listing afterwards.
func TestStressExternalVsInternal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	dir := t.TempDir()
	service, err := vellum.New(dir, vellum.WithAutoInit(true), vellum.WithVersioning(false))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup

	// External actor: raw writes straight to disk.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			name := fmt.Sprintf("noise-%d.md", rand.Intn(10))
			content := fmt.Sprintf("---\ntitle: Noise\n---\nnoise %d\n", time.Now().UnixNano())
			_ = os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
			time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
		}
	}()

	// Internal actor: saves through the service. Errors are tolerated
	// under contention; crashing is not.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			slug := fmt.Sprintf("data-%d", rand.Intn(10))
			_ = service.SavePost(context.Background(), slug, "internal data\n", core.Metadata{
				"title": "Data",
				"ts":    time.Now().Unix(),
			})
			time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
		}
	}()

	// Observer: drains the event stream so the broker never backs up.
	stream, err := service.Watch(ctx, "*")
	require.NoError(t, err)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stream:
			}
		}
	}()

	wg.Wait()

	posts, err := service.ListPosts(context.Background())
	require.NoError(t, err)
	t.Logf("survived chaos with %d posts", len(posts))
}

// TestStressConcurrentVersionedSaves hammers a versioned site with
// parallel writers. The repository lock must serialize the commits so
// every post lands and the work tree ends up clean.
func TestStressConcurrentVersionedSaves(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	client := git.NewClient(dir, nil)
	require.NoError(t, client.Init())
	_, err := client.Run("config", "user.email", "vellum@test.local")
	require.NoError(t, err)
	_, err = client.Run("config", "user.name", "Vellum Test")
	require.NoError(t, err)

	service, err := vellum.New(dir, vellum.WithAutoInit(true))
	require.NoError(t, err)

	const writers = 4
	const perWriter = 5

	errs := make(chan error, writers*perWriter)
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				slug := fmt.Sprintf("writer-%d/post-%d", w, i)
				body := fmt.Sprintf("post %d from writer %d\n", i, w)
				if err := service.SavePost(context.Background(), slug, body, core.Metadata{
					"title": fmt.Sprintf("Post %d-%d", w, i),
				}); err != nil {
					errs <- fmt.Errorf("%s: %w", slug, err)
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("save failed: %v", err)
	}

	posts, err := service.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, writers*perWriter)

	status, err := client.Status()
	require.NoError(t, err)
	require.Empty(t, status, "expected a clean work tree after concurrent commits")
}
