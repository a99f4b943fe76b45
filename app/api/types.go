package api

import (
	"context"

	"github.com/cai-yang/arrs-rss-converter/app/feed"
	"github.com/cai-yang/arrs-rss-converter/app/rules"
)

// FeedFetcher retrieves the raw upstream feed bytes and its content type.
// Satisfied by feed.Fetcher; handler tests substitute a stub.
type FeedFetcher interface {
	Run(ctx context.Context) ([]byte, string, error)
}

type Handler struct {
	engine    *rules.Engine
	fetcher   FeedFetcher
	rewriter  *feed.Rewriter
	inspector *feed.Inspector
}
