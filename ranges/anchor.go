package ranges

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"gbgrab/catalog"
	"gbgrab/giantbomb"
)

// Keyword names a range endpoint and fixes its direction and
// inclusivity.
type Keyword string

const (
	// From includes its episode and everything after it.
	From Keyword = "from"
	// After includes everything after its episode, exclusive.
	After Keyword = "after"
	// To includes everything before its episode, exclusive.
	To Keyword = "to"
	// Through includes its episode and everything before it.
	Through Keyword = "through"
)

// Direction is the traversal direction an anchor bounds.
type Direction int

const (
	// Forward anchors bound the start of a range.
	Forward Direction = iota
	// Backward anchors bound the end of a range.
	Backward
)

// Inclusive reports whether the keyword includes its own episode.
func (k Keyword) Inclusive() bool {
	return k == From || k == Through
}

// Direction returns the traversal direction of the keyword.
func (k Keyword) Direction() Direction {
	if k == From || k == After {
		return Forward
	}
	return Backward
}

// Structure selects the traversal space of an anchor.
type Structure int

const (
	// Flat traverses the whole show's linear episode order.
	Flat Structure = iota
	// SeasonStructured traverses within and across season boundaries
	// of a partition.
	SeasonStructured
)

// Endpoint is one user-supplied range boundary before resolution.
// Exactly one of Text, Episode(+Season), or Season alone is set.
type Endpoint struct {
	Keyword Keyword

	// Text is a compound identifier (S04E17, E17, S04) or a free-text
	// query.
	Text string

	// Episode is an explicit 1-based episode number; 0 means unset.
	Episode int

	// Season is an explicit season reference; empty means unset.
	Season string
}

// Anchor is one resolved range boundary.
type Anchor struct {
	VideoID      int
	SeasonIndex  int // zero-based, valid for SeasonStructured
	EpisodeIndex int // zero-based within the season
	Inclusive    bool
	Direction    Direction
	Structure    Structure

	// Partition is the partition kind actually used, which may differ
	// from the one requested when season lookup fell back.
	Partition catalog.PartitionKind
}

// Matcher resolves free-text episode references.
type Matcher interface {
	Match(ctx context.Context, cat *catalog.Catalog, query string) (giantbomb.Video, error)
}

// Resolver converts endpoints into anchors against a catalog.
type Resolver struct {
	matcher Matcher
	logger  zerolog.Logger
}

// NewResolver creates a Resolver. The matcher handles free-text
// queries; its own precedence rules are not re-adjudicated here.
func NewResolver(matcher Matcher, logger zerolog.Logger) *Resolver {
	return &Resolver{
		matcher: matcher,
		logger:  logger,
	}
}

// Resolve turns one endpoint into an anchor, using the requested
// partition kind for season references.
func (r *Resolver) Resolve(ctx context.Context, ep Endpoint, cat *catalog.Catalog, kind catalog.PartitionKind) (*Anchor, error) {
	if ep.Text != "" && (ep.Episode > 0 || ep.Season != "") {
		return nil, fmt.Errorf("%w: %q given alongside explicit episode/season", ErrConflictingSpec, ep.Text)
	}

	if ep.Text != "" {
		return r.resolveText(ctx, ep, cat, kind)
	}

	if ep.Episode > 0 {
		if ep.Season != "" {
			return r.resolveSeasonEpisode(ep, cat, kind, ep.Season, ep.Episode)
		}
		return r.resolveFlatEpisode(ep, cat, ep.Episode)
	}

	if ep.Season != "" {
		return r.resolveSeasonOnly(ep, cat, kind, ep.Season)
	}

	return nil, fmt.Errorf("%w: empty endpoint", ErrAnchorNotFound)
}

func (r *Resolver) resolveText(ctx context.Context, ep Endpoint, cat *catalog.Catalog, kind catalog.PartitionKind) (*Anchor, error) {
	ident := ParseIdentifier(ep.Text)

	switch ident.Kind {
	case IdentSeasonEpisode:
		return r.resolveSeasonEpisode(ep, cat, kind, strconv.Itoa(ident.Season), ident.Episode)
	case IdentEpisodeOnly:
		return r.resolveFlatEpisode(ep, cat, ident.Episode)
	case IdentSeasonOnly:
		return r.resolveSeasonOnly(ep, cat, kind, strconv.Itoa(ident.Season))
	case IdentUnsupported:
		// Date endpoints parse but are not implemented; fail loudly
		// rather than guessing.
		return nil, fmt.Errorf("%w: date-form identifier %q", ErrUnsupportedSpec, ep.Text)
	}

	video, err := r.matcher.Match(ctx, cat, ep.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrAnchorNotFound, ep.Text)
	}

	if _, ok := cat.IndexOf(video.ID); !ok {
		return nil, fmt.Errorf("%w: %q matched a video outside the show", ErrAnchorNotFound, ep.Text)
	}

	return &Anchor{
		VideoID:   video.ID,
		Inclusive: ep.Keyword.Inclusive(),
		Direction: ep.Keyword.Direction(),
		Structure: Flat,
		Partition: kind,
	}, nil
}

func (r *Resolver) resolveFlatEpisode(ep Endpoint, cat *catalog.Catalog, episode int) (*Anchor, error) {
	if episode < 1 || episode > len(cat.Videos) {
		return nil, fmt.Errorf("%w: episode %d of %d", ErrAnchorNotFound, episode, len(cat.Videos))
	}

	return &Anchor{
		VideoID:   cat.Videos[episode-1].ID,
		Inclusive: ep.Keyword.Inclusive(),
		Direction: ep.Keyword.Direction(),
		Structure: Flat,
	}, nil
}

func (r *Resolver) resolveSeasonEpisode(ep Endpoint, cat *catalog.Catalog, kind catalog.PartitionKind, seasonRef string, episode int) (*Anchor, error) {
	seasonIdx, usedKind, err := resolveSeasonRef(cat, kind, seasonRef)
	if err != nil {
		return nil, err
	}

	season := cat.Partition(usedKind)[seasonIdx]
	if episode < 1 || episode > len(season.Videos) {
		return nil, fmt.Errorf("%w: episode %d of season %q (%d episodes)",
			ErrAnchorNotFound, episode, season.Name, len(season.Videos))
	}

	return &Anchor{
		VideoID:      season.Videos[episode-1].ID,
		SeasonIndex:  seasonIdx,
		EpisodeIndex: episode - 1,
		Inclusive:    ep.Keyword.Inclusive(),
		Direction:    ep.Keyword.Direction(),
		Structure:    SeasonStructured,
		Partition:    usedKind,
	}, nil
}

// resolveSeasonOnly anchors at the season's outer boundary relative to
// the keyword's direction: first episode for forward anchors, last for
// backward.
func (r *Resolver) resolveSeasonOnly(ep Endpoint, cat *catalog.Catalog, kind catalog.PartitionKind, seasonRef string) (*Anchor, error) {
	seasonIdx, usedKind, err := resolveSeasonRef(cat, kind, seasonRef)
	if err != nil {
		return nil, err
	}

	season := cat.Partition(usedKind)[seasonIdx]
	episodeIdx := 0
	if ep.Keyword.Direction() == Backward {
		episodeIdx = len(season.Videos) - 1
	}

	return &Anchor{
		VideoID:      season.Videos[episodeIdx].ID,
		SeasonIndex:  seasonIdx,
		EpisodeIndex: episodeIdx,
		Inclusive:    ep.Keyword.Inclusive(),
		Direction:    ep.Keyword.Direction(),
		Structure:    SeasonStructured,
		Partition:    usedKind,
	}, nil
}

// resolveSeasonRef finds a season by reference. A numeric reference
// indexes 1-based into the requested partition; when that misses, the
// text falls back to substring matching against byYear season names,
// then byGame. The returned kind records which partition actually
// matched.
func resolveSeasonRef(cat *catalog.Catalog, kind catalog.PartitionKind, ref string) (int, catalog.PartitionKind, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(cat.Partition(kind)) {
			return n - 1, kind, nil
		}
	}

	for i, season := range cat.ByYear {
		if strings.Contains(strings.ToLower(season.Name), strings.ToLower(ref)) {
			return i, catalog.ByYear, nil
		}
	}

	for i, season := range cat.ByGame {
		if strings.Contains(strings.ToLower(season.Name), strings.ToLower(ref)) {
			return i, catalog.ByGame, nil
		}
	}

	return 0, kind, fmt.Errorf("%w: season %q", ErrAnchorNotFound, ref)
}
