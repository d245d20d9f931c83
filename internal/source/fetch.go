package source

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

// Defaults for batch fetches.
const (
	DefaultConcurrency    = 5
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = time.Second
)

// FetchOptions tunes FetchAll.
type FetchOptions struct {
	Concurrency    int
	MaxRetries     int
	InitialBackoff time.Duration

	// Progress, when set, is called after each file completes, successfully
	// or not. Calls are serialized.
	Progress func(done, total int, file catalog.FileInfo)
}

func (o FetchOptions) withDefaults() FetchOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = DefaultInitialBackoff
	}
	return o
}

// BatchResult holds the outcome of FetchAll. Contents is keyed by file name.
type BatchResult struct {
	Contents map[string]string
	Failed   map[string]error
}

// FetchWithRetry fetches file, retrying up to maxRetries attempts in total
// with exponential backoff starting at initialBackoff. ErrNotFound is not
// retried.
func FetchWithRetry(ctx context.Context, src Source, file catalog.FileInfo, maxRetries int, initialBackoff time.Duration) (string, error) {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * initialBackoff

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		content, err := src.Fetch(ctx, file)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, ErrNotFound) {
			break
		}
	}

	return "", fmt.Errorf("fetch %s failed after retries: %w", file.Name, lastErr)
}

// FetchAll fetches files with a bounded worker pool. Files that still fail
// after their retries are recorded in Failed and do not abort the batch. The
// returned error is non-nil only when ctx is cancelled.
func FetchAll(ctx context.Context, src Source, files []catalog.FileInfo, opts FetchOptions) (*BatchResult, error) {
	opts = opts.withDefaults()
	result := &BatchResult{
		Contents: make(map[string]string, len(files)),
		Failed:   make(map[string]error),
	}

	var (
		mu   sync.Mutex
		done int
	)

	g := new(errgroup.Group)
	g.SetLimit(opts.Concurrency)
	for _, f := range files {
		g.Go(func() error {
			content, err := FetchWithRetry(ctx, src, f, opts.MaxRetries, opts.InitialBackoff)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[f.Name] = err
			} else {
				result.Contents[f.Name] = content
			}
			done++
			if opts.Progress != nil {
				opts.Progress(done, len(files), f)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// MatchNames keeps the files whose name matches at least one glob pattern.
// No patterns keeps every file.
func MatchNames(files []catalog.FileInfo, patterns []string) ([]catalog.FileInfo, error) {
	if len(patterns) == 0 {
		return files, nil
	}
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}

	out := make([]catalog.FileInfo, 0, len(files))
	for _, f := range files {
		for _, g := range globs {
			if g.Match(f.Name) {
				out = append(out, f)
				break
			}
		}
	}
	return out, nil
}
