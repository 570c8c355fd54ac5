package catalog

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"gbgrab/giantbomb"
)

// guidPattern matches the two dash-joined positive integers of a guid.
var guidPattern = regexp.MustCompile(`^\d+-\d+$`)

// Searcher runs free-text queries against the remote search endpoint.
type Searcher interface {
	AutopageSearch(ctx context.Context, query string, resources []string, params url.Values, stop giantbomb.StopFunc) ([]giantbomb.Video, error)
}

// Matcher resolves a free-text episode reference against a catalog,
// falling back to a cross-show search. Precedence is fixed: numeric
// ID, then guid, then show-scoped name match, then search.
type Matcher struct {
	client Searcher
	logger zerolog.Logger
}

// NewMatcher creates a Matcher.
func NewMatcher(client Searcher, logger zerolog.Logger) *Matcher {
	return &Matcher{
		client: client,
		logger: logger,
	}
}

// Match finds the episode referenced by query.
func (m *Matcher) Match(ctx context.Context, cat *Catalog, query string) (giantbomb.Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return giantbomb.Video{}, fmt.Errorf("%w: empty query", ErrNotFound)
	}

	if id, err := strconv.Atoi(query); err == nil {
		for _, video := range cat.Videos {
			if video.ID == id {
				return video, nil
			}
		}
	}

	if guidPattern.MatchString(query) {
		for _, video := range cat.Videos {
			if video.GUID == query {
				return video, nil
			}
		}
	}

	lowered := strings.ToLower(query)
	for _, video := range cat.Videos {
		if strings.ToLower(video.Name) == lowered {
			return video, nil
		}
	}
	for _, video := range cat.Videos {
		if strings.Contains(strings.ToLower(video.Name), lowered) {
			return video, nil
		}
	}

	m.logger.Debug().Str("query", query).Msg("No show-scoped match, searching remotely")

	found, err := m.client.AutopageSearch(ctx, query, []string{"video"}, nil, func(v giantbomb.Video) bool {
		return strings.Contains(strings.ToLower(v.Name), lowered)
	})
	if err != nil {
		return giantbomb.Video{}, err
	}

	for _, video := range found {
		if strings.Contains(strings.ToLower(video.Name), lowered) {
			return video, nil
		}
	}

	return giantbomb.Video{}, fmt.Errorf("%w: %q", ErrNotFound, query)
}
