package rtcm3

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DecodeAll decodes the frames, each given in hex, in parallel.  The
// results are in the same order as the frames.  It stops early and returns
// the context's error if the context is cancelled.
func DecodeAll(ctx context.Context, frames []string, logLevel slog.Level) ([]*Message, error) {

	results := make([]*Message, len(frames))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, hexFrame := range frames {
		i, hexFrame := i, hexFrame
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Decode(hexFrame, logLevel)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
