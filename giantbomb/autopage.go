package giantbomb

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// StopFunc aborts auto-pagination once an accumulated video matches.
// The partial accumulation is returned, not an error.
type StopFunc func(Video) bool

// Autopage fetches every page of a list endpoint and merges the
// results. Pagination advances by offset and ends when the reported
// total is reached, a page comes back empty, or the stop predicate
// matches.
func (c *Client) Autopage(ctx context.Context, path string, params url.Values, stop StopFunc) ([]Video, error) {
	merged := url.Values{}
	for key, values := range params {
		merged[key] = values
	}
	merged.Set("limit", strconv.Itoa(pageLimit))

	var all []Video
	offset := 0

	for {
		merged.Set("offset", strconv.Itoa(offset))

		resp, err := c.FetchList(ctx, path, merged)
		if err != nil {
			return nil, err
		}

		videos, err := resp.Videos()
		if err != nil {
			return nil, err
		}
		if len(videos) == 0 {
			return all, nil
		}

		for _, video := range videos {
			all = append(all, video)
			if stop != nil && stop(video) {
				return all, nil
			}
		}

		if len(all) >= resp.NumberOfTotalResults {
			return all, nil
		}
		offset += len(videos)
	}
}

// Search queries one page of the search endpoint. The resources list
// restricts result types (e.g. "video").
func (c *Client) Search(ctx context.Context, query string, resources []string, params url.Values) (*Response, error) {
	merged := url.Values{}
	for key, values := range params {
		merged[key] = values
	}
	merged.Set("query", query)
	if len(resources) > 0 {
		merged.Set("resources", strings.Join(resources, ","))
	}

	return c.get(ctx, "/search/", merged)
}

// AutopageSearch fetches every search page and merges the results.
// The search endpoint paginates by page number and reports no
// authoritative total, so only an empty page or the stop predicate
// ends the walk.
func (c *Client) AutopageSearch(ctx context.Context, query string, resources []string, params url.Values, stop StopFunc) ([]Video, error) {
	merged := url.Values{}
	for key, values := range params {
		merged[key] = values
	}
	merged.Set("limit", strconv.Itoa(pageLimit))

	var all []Video
	page := 1

	for {
		merged.Set("page", strconv.Itoa(page))

		resp, err := c.Search(ctx, query, resources, merged)
		if err != nil {
			return nil, err
		}

		videos, err := resp.Videos()
		if err != nil {
			return nil, err
		}
		if len(videos) == 0 {
			return all, nil
		}

		for _, video := range videos {
			all = append(all, video)
			if stop != nil && stop(video) {
				return all, nil
			}
		}

		page++
	}
}
