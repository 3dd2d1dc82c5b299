package aggregate

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	api "github.com/conciergo/onboarding-gateway/api/v1alpha1"
)

const (
	defaultFetchTimeout  = 15 * time.Second
	defaultFetchLimit    = 4
	maxInlinePhotoBytes  = 8 << 20
	fallbackContentType  = "image/jpeg"
)

// PhotoFetcher materializes remote photo references into inline data URIs.
// A failed fetch is never fatal: the original remote URL is kept as a
// fallback so a bad photo cannot abort a whole aggregation.
type PhotoFetcher struct {
	client      *http.Client
	parallelism int
}

func NewPhotoFetcher(parallelism int) *PhotoFetcher {
	if parallelism <= 0 {
		parallelism = defaultFetchLimit
	}
	return &PhotoFetcher{
		client:      &http.Client{Timeout: defaultFetchTimeout},
		parallelism: parallelism,
	}
}

// FetchAll materializes refs with bounded parallelism. Output order always
// follows input order regardless of arrival order.
func (f *PhotoFetcher) FetchAll(ctx context.Context, refs []api.PhotoRef) []api.Photo {
	photos := make([]api.Photo, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.parallelism)

	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			photos[i] = f.fetch(gctx, ref)
			return nil
		})
	}
	_ = g.Wait()

	return photos
}

func (f *PhotoFetcher) fetch(ctx context.Context, ref api.PhotoRef) api.Photo {
	fallback := api.Photo{Data: ref.URL, Caption: ref.Caption, Inline: false}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		zap.S().Named("photos").Warnw("keeping remote photo reference", "url", ref.URL, "error", err)
		return fallback
	}

	resp, err := f.client.Do(req)
	if err != nil {
		zap.S().Named("photos").Warnw("photo fetch failed, keeping remote reference", "url", ref.URL, "error", err)
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		zap.S().Named("photos").Warnw("photo fetch failed, keeping remote reference", "url", ref.URL, "status", resp.StatusCode)
		return fallback
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxInlinePhotoBytes))
	if err != nil {
		zap.S().Named("photos").Warnw("photo read failed, keeping remote reference", "url", ref.URL, "error", err)
		return fallback
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = fallbackContentType
	}

	return api.Photo{
		Data:    fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)),
		Caption: ref.Caption,
		Inline:  true,
	}
}
