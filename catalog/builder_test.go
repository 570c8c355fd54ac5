package catalog

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gbgrab/giantbomb"
)

// fakeLister serves a fixed video list without touching the network.
type fakeLister struct {
	videos []giantbomb.Video
	err    error
}

func (f *fakeLister) Autopage(ctx context.Context, path string, params url.Values, stop giantbomb.StopFunc) ([]giantbomb.Video, error) {
	return f.videos, f.err
}

func video(id int, name, publishDate string, game string) giantbomb.Video {
	v := giantbomb.Video{
		ID:          id,
		GUID:        fmt.Sprintf("2300-%d", id),
		Name:        name,
		PublishDate: publishDate,
	}
	if game != "" {
		v.Associations = []giantbomb.Association{
			{Name: game, APIDetailURL: "https://www.giantbomb.com/api/game/3030-1/"},
		}
	}
	return v
}

// datedVideos generates count videos starting at start, spaced evenly.
func datedVideos(t *testing.T, startID int, start string, spacing time.Duration, count int, game string) []giantbomb.Video {
	t.Helper()

	base, err := time.Parse("2006-01-02", start)
	require.NoError(t, err)

	videos := make([]giantbomb.Video, 0, count)
	for i := 0; i < count; i++ {
		id := startID + i
		when := base.Add(time.Duration(i) * spacing)
		videos = append(videos, video(id, fmt.Sprintf("Episode %02d", id), when.Format("2006-01-02 15:04:05"), game))
	}
	return videos
}

func build(t *testing.T, videos []giantbomb.Video, copyYear bool) *Catalog {
	t.Helper()

	builder := NewBuilder(&fakeLister{videos: videos}, zerolog.Nop(), copyYear)
	cat, err := builder.Build(context.Background(), 18)
	require.NoError(t, err)
	return cat
}

func TestBuildEmptyShow(t *testing.T) {
	cat := build(t, nil, false)

	assert.Empty(t, cat.Videos)
	assert.Empty(t, cat.ByYear)
	assert.Empty(t, cat.ByGame)
	assert.Equal(t, ByYear, cat.Preferred)
}

func TestYearPartitionSplitsOnYearChange(t *testing.T) {
	videos := append(
		datedVideos(t, 1, "2018-03-01", 14*24*time.Hour, 4, ""),
		datedVideos(t, 5, "2019-03-01", 14*24*time.Hour, 3, "")...,
	)

	cat := build(t, videos, true)

	require.Len(t, cat.ByYear, 2)
	assert.Equal(t, "2018", cat.ByYear[0].Name)
	assert.Equal(t, "2019", cat.ByYear[1].Name)
	assert.Len(t, cat.ByYear[0].Videos, 4)
	assert.Len(t, cat.ByYear[1].Videos, 3)
}

func TestYearPartitionNameGuardFoldsRecapEpisode(t *testing.T) {
	videos := datedVideos(t, 1, "2018-06-01", 14*24*time.Hour, 3, "")
	videos = append(videos, video(4, "Best Games of 2018", "2019-01-05 12:00:00", ""))
	// Far enough from the recap that no boundary chain forms.
	videos = append(videos, video(5, "Episode 05", "2019-04-01 12:00:00", ""))

	cat := build(t, videos, false)

	require.Len(t, cat.ByYear, 2)
	assert.Equal(t, "2018", cat.ByYear[0].Name)
	assert.Len(t, cat.ByYear[0].Videos, 4, "recap named after the prior year folds into that season")
	assert.Len(t, cat.ByYear[1].Videos, 1)
}

func TestYearPartitionNameGuardSkippedInCopyYearMode(t *testing.T) {
	videos := datedVideos(t, 1, "2018-06-01", 14*24*time.Hour, 3, "")
	videos = append(videos, video(4, "Best Games of 2018", "2019-04-05 12:00:00", ""))

	cat := build(t, videos, true)

	require.Len(t, cat.ByYear, 2)
	assert.Len(t, cat.ByYear[0].Videos, 3)
	assert.Len(t, cat.ByYear[1].Videos, 1)
}

func TestBoundaryCorrectionScenario(t *testing.T) {
	// A December run whose last two episodes roll into January,
	// followed by the real 2020 season through mid-2020.
	videos := []giantbomb.Video{
		video(1, "Episode 01", "2019-12-29 12:00:00", ""),
		video(2, "Episode 02", "2019-12-30 12:00:00", ""),
		video(3, "Episode 03", "2020-01-02 12:00:00", ""),
		video(4, "Episode 04", "2020-01-03 12:00:00", ""),
	}
	videos = append(videos, datedVideos(t, 5, "2020-01-18", 15*24*time.Hour, 10, "")...)

	cat := build(t, videos, false)

	require.Len(t, cat.ByYear, 2)
	assert.Equal(t, "2019", cat.ByYear[0].Name)
	assert.Len(t, cat.ByYear[0].Videos, 4, "the early-January episodes belong to the 2019 season")
	assert.Equal(t, 4, cat.ByYear[0].Videos[3].ID)
	assert.Len(t, cat.ByYear[1].Videos, 10)
	assert.Equal(t, 5, cat.ByYear[1].Videos[0].ID)
}

func TestBoundaryCorrectionSkippedInCopyYearMode(t *testing.T) {
	videos := []giantbomb.Video{
		video(1, "Episode 01", "2019-12-30 12:00:00", ""),
		video(2, "Episode 02", "2020-01-02 12:00:00", ""),
		video(3, "Episode 03", "2020-06-01 12:00:00", ""),
	}

	cat := build(t, videos, true)

	require.Len(t, cat.ByYear, 2)
	assert.Len(t, cat.ByYear[0].Videos, 1)
	assert.Len(t, cat.ByYear[1].Videos, 2)
}

func TestBoundaryCorrectionIdempotent(t *testing.T) {
	videos := []giantbomb.Video{
		video(1, "Episode 01", "2019-12-29 12:00:00", ""),
		video(2, "Episode 02", "2019-12-30 12:00:00", ""),
		video(3, "Episode 03", "2020-01-02 12:00:00", ""),
		video(4, "Episode 04", "2020-01-03 12:00:00", ""),
	}
	videos = append(videos, datedVideos(t, 5, "2020-01-18", 15*24*time.Hour, 10, "")...)

	once := correctYearBoundaries(buildYearPartition(videos, false))
	twice := correctYearBoundaries(once)

	assert.Equal(t, once, twice, "a second correction pass must change nothing")
}

func TestBoundaryCorrectionIgnoresRegularCadence(t *testing.T) {
	// A weekly show crossing the year boundary: the new year's episodes
	// chain tightly, but past the scan limit, so nothing moves.
	videos := datedVideos(t, 1, "2019-11-01", 7*24*time.Hour, 20, "")

	cat := build(t, videos, false)

	require.Len(t, cat.ByYear, 2)
	assert.Equal(t, "2019", cat.ByYear[0].Name)
	for _, v := range cat.ByYear[0].Videos {
		assert.Equal(t, 2019, v.Year())
	}
}

func TestGamePartitionGroupsInFirstOccurrenceOrder(t *testing.T) {
	videos := []giantbomb.Video{
		video(1, "Part 01", "2019-01-01 12:00:00", "Zelda"),
		video(2, "Part 02", "2019-01-08 12:00:00", "Zelda"),
		video(3, "Bonus", "2019-01-10 12:00:00", ""),
		video(4, "Part 01", "2019-02-01 12:00:00", "Doom"),
		video(5, "Part 03", "2019-02-08 12:00:00", "Zelda"),
	}

	cat := build(t, videos, false)

	require.Len(t, cat.ByGame, 3)
	assert.Equal(t, "Zelda", cat.ByGame[0].Name)
	assert.Equal(t, NoGameLabel, cat.ByGame[1].Name)
	assert.Equal(t, "Doom", cat.ByGame[2].Name)
	assert.Len(t, cat.ByGame[0].Videos, 3)
}

func TestPartitionCompleteness(t *testing.T) {
	videos := []giantbomb.Video{
		video(1, "Part 01", "2019-11-20 12:00:00", "Zelda"),
		video(2, "Part 02", "2019-12-30 12:00:00", "Zelda"),
		video(3, "Part 03", "2020-01-02 12:00:00", "Zelda"),
		video(4, "Bonus", "2020-03-01 12:00:00", ""),
		video(5, "Part 01", "2020-04-01 12:00:00", "Doom"),
	}

	cat := build(t, videos, false)

	for _, partition := range []Partition{cat.ByYear, cat.ByGame} {
		seen := make(map[int]int)
		for _, season := range partition {
			require.NotEmpty(t, season.Videos, "seasons are never empty")
			for _, v := range season.Videos {
				seen[v.ID]++
			}
		}
		require.Len(t, seen, len(videos))
		for id, count := range seen {
			assert.Equal(t, 1, count, "video %d must appear exactly once", id)
		}
	}
}

func TestPreferredPartitionThreshold(t *testing.T) {
	tests := []struct {
		name      string
		perGame   []int
		preferred PartitionKind
	}{
		{
			name:      "ratio exactly 5 selects game partition",
			perGame:   []int{5, 5},
			preferred: ByGame,
		},
		{
			name:      "ratio 4.5 selects year partition",
			perGame:   []int{5, 4},
			preferred: ByYear,
		},
		{
			name:      "single game season selects year partition",
			perGame:   []int{12},
			preferred: ByYear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var videos []giantbomb.Video
			id := 1
			start := time.Date(2019, 1, 10, 12, 0, 0, 0, time.UTC)
			for g, count := range tt.perGame {
				for i := 0; i < count; i++ {
					when := start.Add(time.Duration(id) * 13 * 24 * time.Hour)
					videos = append(videos, video(id, fmt.Sprintf("Part %02d", i+1), when.Format("2006-01-02 15:04:05"), fmt.Sprintf("Game %d", g+1)))
					id++
				}
			}

			cat := build(t, videos, false)
			assert.Equal(t, tt.preferred, cat.Preferred)
		})
	}
}

func TestLocateAndIndexOf(t *testing.T) {
	videos := []giantbomb.Video{
		video(1, "Episode 01", "2018-05-01 12:00:00", ""),
		video(2, "Episode 02", "2018-06-01 12:00:00", ""),
		video(3, "Episode 03", "2019-05-01 12:00:00", ""),
	}

	cat := build(t, videos, false)

	si, vi, ok := cat.ByYear.Locate(3)
	require.True(t, ok)
	assert.Equal(t, 1, si)
	assert.Equal(t, 0, vi)

	idx, ok := cat.IndexOf(2)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, _, ok = cat.ByYear.Locate(99)
	assert.False(t, ok)
	_, ok = cat.IndexOf(99)
	assert.False(t, ok)
}
