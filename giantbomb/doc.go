// Package giantbomb provides a rate-limited, cached client for the
// Giant Bomb REST API.
//
// The remote API allows roughly one request per second, so the client
// serializes all outbound calls: at most one request is in flight at
// any time, and successive request starts are spaced by at least the
// configured rate limit. Responses are cached by request signature
// (URL plus normalized query parameters, credential excluded) in a
// durable store, and the cache is consulted both before and after a
// caller waits for its turn, so concurrent logical requests for the
// same signature never hit the network twice.
//
// # Usage
//
//	store := cache.New(path, logger)
//	client, err := giantbomb.NewClient(baseURL, apiKey, store, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Fetch every video of a show
//	params := url.Values{}
//	params.Set("filter", "video_show:18")
//	params.Set("sort", "publish_date:asc")
//	videos, err := client.Autopage(ctx, "/videos/", params, nil)
//
// Failures are reported through a small taxonomy: *TransportError for
// network and HTTP-level problems, *APIError when the remote reports a
// business failure through its envelope, and ErrEmptyResponse when the
// body is missing or undecodable. None of them are retried internally.
package giantbomb
