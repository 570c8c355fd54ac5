package download

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"gbgrab/catalog"
	"gbgrab/giantbomb"
)

// DefaultTemplate produces a Plex-style episode filename.
const DefaultTemplate = "{show} - S{season}E{episode} - {name}"

// unsafeChars are stripped from filename components. Forward slash is
// included so a template placeholder can never escape the target
// directory.
var unsafeChars = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// Filename expands a naming template for one episode. Season and
// episode numbers come from the catalog's preferred partition and are
// zero-padded to two digits. The extension is taken from the source
// URL and defaults to .mp4.
func Filename(template string, video giantbomb.Video, cat *catalog.Catalog, quality Quality) string {
	if template == "" {
		template = DefaultTemplate
	}

	season, episode := "00", "00"
	if si, ei, ok := cat.PreferredPartition().Locate(video.ID); ok {
		season = fmt.Sprintf("%02d", si+1)
		episode = fmt.Sprintf("%02d", ei+1)
	}

	publishDate := ""
	if t, err := video.Published(); err == nil {
		publishDate = t.Format("2006-01-02")
	}

	name := strings.NewReplacer(
		"{show}", sanitize(cat.ShowTitle),
		"{id}", strconv.Itoa(video.ID),
		"{guid}", sanitize(video.GUID),
		"{name}", sanitize(video.Name),
		"{publish_date}", publishDate,
		"{quality}", string(quality),
		"{season}", season,
		"{episode}", episode,
	).Replace(template)

	return strings.TrimRight(name, " .") + extension(video, quality)
}

// sanitize removes characters that are unsafe in filenames.
func sanitize(s string) string {
	return strings.TrimSpace(unsafeChars.Replace(s))
}

// extension derives the file extension from the tier's source URL.
func extension(video giantbomb.Video, quality Quality) string {
	source, _, err := SourceURL(video, quality)
	if err != nil {
		return ".mp4"
	}

	u, err := url.Parse(source)
	if err != nil {
		return ".mp4"
	}

	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return ".mp4"
}
