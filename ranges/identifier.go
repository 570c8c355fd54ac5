package ranges

import (
	"regexp"
	"strconv"
	"time"
)

// IdentifierKind tags the parsed form of a compound identifier.
type IdentifierKind int

const (
	// IdentFreeText is anything that parses as none of the compound
	// forms; the caller treats it as a query.
	IdentFreeText IdentifierKind = iota
	// IdentSeasonEpisode is the S04E17 form.
	IdentSeasonEpisode
	// IdentEpisodeOnly is the E17 form.
	IdentEpisodeOnly
	// IdentSeasonOnly is the S04 form.
	IdentSeasonOnly
	// IdentUnsupported is a recognized but unimplemented form
	// (calendar dates).
	IdentUnsupported
)

// Identifier is the parsed form of a range endpoint string.
type Identifier struct {
	Kind    IdentifierKind
	Season  int
	Episode int
	Raw     string
}

var (
	seasonEpisodePattern = regexp.MustCompile(`(?i)^s(\d+)\s*e(\d+)$`)
	episodeOnlyPattern   = regexp.MustCompile(`(?i)^e(\d+)$`)
	seasonOnlyPattern    = regexp.MustCompile(`(?i)^s(\d+)$`)
)

// dateLayouts are the calendar forms recognized (and rejected) as
// endpoint identifiers.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"01/02/2006",
	"January 2006",
}

// yearPattern matches a bare calendar year. Checked separately so a
// five-digit video ID is not mistaken for a date.
var yearPattern = regexp.MustCompile(`^(19|20)\d{2}$`)

// ParseIdentifier classifies an endpoint string in a single pass. The
// fallback order is fixed: season+episode, episode only, season only,
// date forms, free text.
func ParseIdentifier(raw string) Identifier {
	if m := seasonEpisodePattern.FindStringSubmatch(raw); m != nil {
		season, _ := strconv.Atoi(m[1])
		episode, _ := strconv.Atoi(m[2])
		return Identifier{Kind: IdentSeasonEpisode, Season: season, Episode: episode, Raw: raw}
	}

	if m := episodeOnlyPattern.FindStringSubmatch(raw); m != nil {
		episode, _ := strconv.Atoi(m[1])
		return Identifier{Kind: IdentEpisodeOnly, Episode: episode, Raw: raw}
	}

	if m := seasonOnlyPattern.FindStringSubmatch(raw); m != nil {
		season, _ := strconv.Atoi(m[1])
		return Identifier{Kind: IdentSeasonOnly, Season: season, Raw: raw}
	}

	if yearPattern.MatchString(raw) {
		return Identifier{Kind: IdentUnsupported, Raw: raw}
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return Identifier{Kind: IdentUnsupported, Raw: raw}
		}
	}

	return Identifier{Kind: IdentFreeText, Raw: raw}
}
