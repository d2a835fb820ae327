package link

import (
	"context"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Input is one module handed to the linker: a display name, the path of its
// textual IR file, and its resolution priority.
type Input struct {
	Name     string
	Path     string
	Priority Priority
}

// ExtractAll reads and extracts every input in parallel, preserving input
// order in the result slice. When cache is non-nil, unchanged inputs are
// served from disk and fresh extractions are written back; cache write
// failures are ignored since the extraction already succeeded.
func ExtractAll(ctx context.Context, inputs []Input, cache *DiskCache, jobs int) ([]*SymbolTable, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	tables := make([]*SymbolTable, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(inputs), 1)))
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			data, err := os.ReadFile(in.Path)
			if err != nil {
				return err
			}
			text := string(data)
			key := DigestOf(in.Name, in.Priority, text)
			if cached, hit, err := cache.Get(key); err == nil && hit {
				tables[i] = cached
				return nil
			}
			table, err := Extract(text, in.Name, in.Priority)
			if err != nil {
				return err
			}
			_ = cache.Put(key, table)
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}
