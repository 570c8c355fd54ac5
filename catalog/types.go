package catalog

import (
	"gbgrab/giantbomb"
)

// PartitionKind distinguishes the two season partitions of a catalog.
type PartitionKind string

const (
	// ByYear groups episodes by release year.
	ByYear PartitionKind = "year"
	// ByGame groups episodes by associated game.
	ByGame PartitionKind = "game"
)

// NoGameLabel names the season holding episodes without a game
// association.
const NoGameLabel = "No associated game"

// Season is a named, ordered, non-empty group of episodes. Seasons are
// numbered by their position in the partition, starting at 1; the name
// never participates in numbering.
type Season struct {
	Name   string
	Videos []giantbomb.Video
}

// Partition is an ordered sequence of seasons covering every episode
// of the catalog exactly once.
type Partition []Season

// ItemCount returns the number of episodes across all seasons.
func (p Partition) ItemCount() int {
	n := 0
	for _, season := range p {
		n += len(season.Videos)
	}
	return n
}

// Locate finds the (season, episode) position of a video by ID, both
// zero-based. Returns false when the video is not in the partition.
func (p Partition) Locate(videoID int) (int, int, bool) {
	for si, season := range p {
		for vi, video := range season.Videos {
			if video.ID == videoID {
				return si, vi, true
			}
		}
	}
	return 0, 0, false
}

// Catalog is the full episode listing of one show with both season
// partitions. It is built fresh per invocation and never mutated.
type Catalog struct {
	ShowID    int
	ShowTitle string
	Videos    []giantbomb.Video
	ByYear    Partition
	ByGame    Partition
	Preferred PartitionKind
}

// Partition returns the partition of the requested kind.
func (c *Catalog) Partition(kind PartitionKind) Partition {
	if kind == ByGame {
		return c.ByGame
	}
	return c.ByYear
}

// PreferredPartition returns the partition selected at build time.
func (c *Catalog) PreferredPartition() Partition {
	return c.Partition(c.Preferred)
}

// IndexOf finds a video's position in the flat episode order.
func (c *Catalog) IndexOf(videoID int) (int, bool) {
	for i, video := range c.Videos {
		if video.ID == videoID {
			return i, true
		}
	}
	return 0, false
}
