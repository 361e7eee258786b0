package history

import (
	"context"

	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/usecase/search"
)

// Location is the browser address bar and history stack.
type Location interface {
	URL() string
	PushState(url string)
}

// Navigator is the part of the search controller that history drives.
type Navigator interface {
	Current() string
	Apply(ctx context.Context, params query.Params, freeText string) search.Outcome
}
