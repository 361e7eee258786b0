package search

import (
	"context"

	"github.com/kailas-cloud/facetsearch/internal/domain/response"
)

// Fetcher requests the results of a query string from the backend.
type Fetcher interface {
	Search(ctx context.Context, query string) (*response.Response, error)
}

// View renders what the controller decides to show.
type View interface {
	ShowLoading()
	HideLoading()
	// RenderResults replaces the result list with items.
	RenderResults(items []string)
	RenderSubscribe(widget string)
}

// HistoryPusher records the canonical URL of an applied query.
type HistoryPusher interface {
	Push(query string)
}

// Pager restarts endless scrolling after a new result set.
type Pager interface {
	Reset(moreLink string, total, rendered int)
}
