package catalog

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"gbgrab/giantbomb"
)

const (
	// month approximates one calendar month for gap heuristics.
	month = 30 * 24 * time.Hour

	// boundaryChainGap is the largest gap between consecutive episodes
	// still treated as one uninterrupted run across a year boundary
	// (0.35 of a month, i.e. 10.5 days).
	boundaryChainGap = month * 35 / 100

	// boundaryScanLimit caps how many leading episodes of a season the
	// boundary correction examines.
	boundaryScanLimit = 5

	// preferredGameRatio is the minimum episodes-per-game-season for
	// the game partition to win.
	preferredGameRatio = 5.0
)

// Lister fetches the full episode list of a show.
type Lister interface {
	Autopage(ctx context.Context, path string, params url.Values, stop giantbomb.StopFunc) ([]giantbomb.Video, error)
}

// Builder turns a show's flat episode list into a Catalog.
type Builder struct {
	client   Lister
	logger   zerolog.Logger
	copyYear bool
}

// NewBuilder creates a catalog builder. With copyYear set, season
// labels copy the release year literally: the name-match guard and the
// boundary correction are both skipped.
func NewBuilder(client Lister, logger zerolog.Logger, copyYear bool) *Builder {
	return &Builder{
		client:   client,
		logger:   logger,
		copyYear: copyYear,
	}
}

// Build fetches every episode of the show and derives both partitions.
// A show with no episodes yields an empty catalog, not an error.
func (b *Builder) Build(ctx context.Context, showID int) (*Catalog, error) {
	params := url.Values{}
	params.Set("filter", fmt.Sprintf("video_show:%d", showID))
	params.Set("sort", "publish_date:asc")

	videos, err := b.client.Autopage(ctx, "/videos/", params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch videos for show %d: %w", showID, err)
	}

	cat := &Catalog{
		ShowID: showID,
		Videos: videos,
	}

	if len(videos) == 0 {
		b.logger.Warn().Int("show_id", showID).Msg("Show has no videos")
		cat.Preferred = ByYear
		return cat, nil
	}

	if show := videos[0].VideoShow; show != nil {
		cat.ShowTitle = show.Title
	}

	cat.ByYear = buildYearPartition(videos, b.copyYear)
	if !b.copyYear {
		cat.ByYear = correctYearBoundaries(cat.ByYear)
	}
	cat.ByGame = buildGamePartition(videos)
	cat.Preferred = choosePreferred(len(videos), cat.ByGame)

	b.logger.Debug().
		Int("show_id", showID).
		Int("videos", len(videos)).
		Int("year_seasons", len(cat.ByYear)).
		Int("game_seasons", len(cat.ByGame)).
		Str("preferred", string(cat.Preferred)).
		Msg("Built catalog")

	return cat, nil
}

// buildYearPartition walks episodes in publish order and opens a new
// season whenever the release year changes. Unless copyYear is set, an
// episode whose name matches the current season's label (a year-in-
// review clip published in January, say) is folded into that season
// instead of opening the next one.
func buildYearPartition(videos []giantbomb.Video, copyYear bool) Partition {
	var partition Partition

	for _, video := range videos {
		label := strconv.Itoa(video.Year())

		if len(partition) == 0 {
			partition = append(partition, Season{Name: label, Videos: []giantbomb.Video{video}})
			continue
		}

		current := &partition[len(partition)-1]
		if current.Name == label {
			current.Videos = append(current.Videos, video)
			continue
		}

		if !copyYear {
			if matched, err := regexp.MatchString(current.Name, video.Name); err == nil && matched {
				current.Videos = append(current.Videos, video)
				continue
			}
		}

		partition = append(partition, Season{Name: label, Videos: []giantbomb.Video{video}})
	}

	return partition
}

// buildGamePartition groups episodes by the game named in their first
// game association, in first-occurrence order. Episodes without one
// share a sentinel season.
func buildGamePartition(videos []giantbomb.Video) Partition {
	var partition Partition
	index := make(map[string]int)

	for _, video := range videos {
		label, ok := video.Game()
		if !ok {
			label = NoGameLabel
		}

		if i, seen := index[label]; seen {
			partition[i].Videos = append(partition[i].Videos, video)
			continue
		}

		index[label] = len(partition)
		partition = append(partition, Season{Name: label, Videos: []giantbomb.Video{video}})
	}

	return partition
}

// correctYearBoundaries reassigns episodes that straddle a year
// boundary. A December run whose finale rolls into early January gets
// split by the year walk; the leading chain of the new season is moved
// back when each episode follows its predecessor within the chain gap
// and the whole chain stays within a month of the previous season's
// last episode. The pass is idempotent: once moved, the next season
// starts with a genuine gap and no further chain forms.
func correctYearBoundaries(partition Partition) Partition {
	if len(partition) < 2 {
		return partition
	}

	corrected := make(Partition, 0, len(partition))
	corrected = append(corrected, partition[0])

	for i := 1; i < len(partition); i++ {
		prev := &corrected[len(corrected)-1]
		season := partition[i]

		moved := boundaryChain(prev.Videos[len(prev.Videos)-1], season.Videos)
		if moved > 0 {
			prev.Videos = append(prev.Videos, season.Videos[:moved]...)
			season.Videos = season.Videos[moved:]
		}

		if len(season.Videos) > 0 {
			corrected = append(corrected, season)
		}
	}

	return corrected
}

// boundaryChain counts the leading episodes of a season that belong to
// the previous season. The chain must end with a natural gap; hitting
// the scan limit means a regular release cadence, not a boundary
// artifact, and nothing moves.
func boundaryChain(prevLast giantbomb.Video, videos []giantbomb.Video) int {
	anchor, err := prevLast.Published()
	if err != nil {
		return 0
	}

	last := anchor
	chain := 0

	for i, video := range videos {
		if i >= boundaryScanLimit {
			return 0
		}

		published, err := video.Published()
		if err != nil {
			return 0
		}

		if published.Sub(last) >= boundaryChainGap {
			return chain
		}
		if published.Sub(anchor) >= month {
			// The run kept going past a month of the old season's end:
			// that is a release cadence, not a boundary artifact.
			return 0
		}

		chain = i + 1
		last = published
	}

	// The season ran out before the chain broke: the whole remainder
	// is within reach of the previous season.
	return chain
}

// choosePreferred selects the game partition only when the show is
// meaningfully game-structured: more than one game season, with at
// least preferredGameRatio episodes per season on average.
func choosePreferred(itemCount int, byGame Partition) PartitionKind {
	if len(byGame) <= 1 {
		return ByYear
	}
	if float64(itemCount)/float64(len(byGame)) >= preferredGameRatio {
		return ByGame
	}
	return ByYear
}
