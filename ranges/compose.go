package ranges

import (
	"gbgrab/catalog"
	"gbgrab/giantbomb"
)

// Intersect composes anchors into the final episode-ID set. Anchors
// are conjunctive: each one's included set is intersected into the
// running total, starting from the full catalog. Mutually exclusive
// anchors legitimately produce an empty set.
func Intersect(anchors []*Anchor, cat *catalog.Catalog) map[int]struct{} {
	included := make(map[int]struct{}, len(cat.Videos))
	for _, video := range cat.Videos {
		included[video.ID] = struct{}{}
	}

	for _, anchor := range anchors {
		own := anchorSet(anchor, cat)
		for id := range included {
			if _, ok := own[id]; !ok {
				delete(included, id)
			}
		}
	}

	return included
}

// Selected returns the catalog's episodes in publish order, filtered
// to the included set.
func Selected(included map[int]struct{}, cat *catalog.Catalog) []giantbomb.Video {
	var out []giantbomb.Video
	for _, video := range cat.Videos {
		if _, ok := included[video.ID]; ok {
			out = append(out, video)
		}
	}
	return out
}

// anchorSet computes the IDs a single anchor admits.
func anchorSet(anchor *Anchor, cat *catalog.Catalog) map[int]struct{} {
	var order []giantbomb.Video
	if anchor.Structure == SeasonStructured {
		for _, season := range cat.Partition(anchor.Partition) {
			order = append(order, season.Videos...)
		}
	} else {
		order = cat.Videos
	}

	pos := -1
	for i, video := range order {
		if video.ID == anchor.VideoID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil
	}

	// Exclusive anchors step past their own episode.
	start, end := 0, len(order)-1
	if anchor.Direction == Forward {
		start = pos
		if !anchor.Inclusive {
			start++
		}
	} else {
		end = pos
		if !anchor.Inclusive {
			end--
		}
	}

	set := make(map[int]struct{})
	for i := start; i <= end && i < len(order); i++ {
		if i < 0 {
			continue
		}
		set[order[i].ID] = struct{}{}
	}
	return set
}
