package media

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// UploadAll uploads files with at most limit uploads in flight and returns
// results in input order. The first failure cancels the rest.
func UploadAll(ctx context.Context, u Uploader, files []File, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 1
	}
	results := make([]Result, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, f := range files {
		g.Go(func() error {
			res, err := u.Upload(ctx, f)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
