package pager

import (
	"context"

	"github.com/kailas-cloud/facetsearch/internal/domain/response"
)

// PageFetcher loads the page of a result set starting at offset after.
type PageFetcher interface {
	More(ctx context.Context, moreLink string, after int) (*response.Response, error)
}

// Viewport reports the scroll geometry in pixels.
type Viewport interface {
	ScrollTop() int
	DocumentHeight() int
	WindowHeight() int
}

// View shows appended results and the "load more" control.
type View interface {
	AppendResults(items []string)
	ShowLoadMore(remaining int)
	ShowNothingFound()
	HideLoadMore()
}
