package ws

import (
	"context"
	"net/http"
	"net/url"
)

type (
	// OpenParams are resolved on every Open, so callers may rotate URLs or
	// credentials between connections.
	OpenParams struct {
		URL    url.URL
		Header http.Header
	}

	OpenParamsGetter func(ctx context.Context) (OpenParams, error)
)

// StaticOpenParams always returns the given URL and no extra headers.
func StaticOpenParams(u url.URL) OpenParamsGetter {
	return func(context.Context) (OpenParams, error) {
		return OpenParams{URL: u}, nil
	}
}
