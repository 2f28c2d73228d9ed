package service

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/config"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
	"github.com/ilindan-dev/fact-scheduler/pkg/batch"
)

// ImagePrefetcher warms fact images ahead of delivery with bounded
// parallelism, so the delivery path never downloads on the hot path.
type ImagePrefetcher struct {
	client      *http.Client
	concurrency int
	logger      zerolog.Logger
}

// NewImagePrefetcher creates a prefetcher with the configured concurrency.
func NewImagePrefetcher(cfg *config.Config, logger *zerolog.Logger) *ImagePrefetcher {
	return &ImagePrefetcher{
		client:      &http.Client{Timeout: 15 * time.Second},
		concurrency: cfg.Scheduler.PrefetchConcurrency,
		logger:      logger.With().Str("component", "image_prefetcher").Logger(),
	}
}

// Prefetch downloads the images of the given facts. Individual failures are
// logged and ignored: a missing image never fails a scheduling run.
func (p *ImagePrefetcher) Prefetch(ctx context.Context, facts []model.Fact) {
	urls := make([]string, 0, len(facts))
	for _, f := range facts {
		if f.ImageURL != nil && *f.ImageURL != "" {
			urls = append(urls, *f.ImageURL)
		}
	}
	if len(urls) == 0 {
		return
	}

	_, err := batch.Run(ctx, urls, p.concurrency, func(ctx context.Context, url string) (struct{}, error) {
		if err := p.fetch(ctx, url); err != nil {
			p.logger.Warn().Err(err).Str("url", url).Msg("image prefetch failed")
		}
		return struct{}{}, nil
	})
	if err != nil {
		p.logger.Warn().Err(err).Msg("image prefetch batch aborted")
		return
	}
	p.logger.Info().Int("count", len(urls)).Msg("image prefetch finished")
}

func (p *ImagePrefetcher) fetch(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}
