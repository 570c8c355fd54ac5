package giantbomb

import (
	"encoding/json"
	"strings"
	"time"
)

// publishDateLayout is the naive UTC timestamp format used by the API.
const publishDateLayout = "2006-01-02 15:04:05"

// Response is the JSON envelope every endpoint returns.
type Response struct {
	Error                string          `json:"error"`
	Limit                int             `json:"limit"`
	Offset               int             `json:"offset"`
	NumberOfPageResults  int             `json:"number_of_page_results"`
	NumberOfTotalResults int             `json:"number_of_total_results"`
	StatusCode           int             `json:"status_code"`
	Results              json.RawMessage `json:"results"`
}

// statusOK is the success marker in the envelope.
const statusOK = 1

// Video is one episode of a show.
type Video struct {
	ID             int           `json:"id"`
	GUID           string        `json:"guid"`
	Name           string        `json:"name"`
	Deck           string        `json:"deck"`
	PublishDate    string        `json:"publish_date"`
	LengthSeconds  int           `json:"length_seconds"`
	Premium        bool          `json:"premium"`
	LowURL         string        `json:"low_url"`
	HighURL        string        `json:"high_url"`
	HDURL          string        `json:"hd_url"`
	URL            string        `json:"url"`
	VideoShow      *VideoShow    `json:"video_show"`
	Associations   []Association `json:"associations"`
}

// VideoShow identifies the show a video belongs to.
type VideoShow struct {
	ID    int    `json:"id"`
	GUID  string `json:"guid"`
	Title string `json:"title"`
}

// Association is a tagged reference attached to a video. Some point at
// a game entity, recognizable by the /game/ path in the detail URL.
type Association struct {
	ID           int    `json:"id"`
	GUID         string `json:"guid"`
	Name         string `json:"name"`
	APIDetailURL string `json:"api_detail_url"`
}

// gameMarker identifies associations that reference a game entity.
const gameMarker = "/game/"

// IsGame reports whether the association references a game entity.
func (a Association) IsGame() bool {
	return strings.Contains(a.APIDetailURL, gameMarker)
}

// Published parses the video's publish date. The API reports naive
// timestamps; they are treated as UTC.
func (v Video) Published() (time.Time, error) {
	return time.ParseInLocation(publishDateLayout, v.PublishDate, time.UTC)
}

// Year returns the release year, or 0 when the date is unparsable.
func (v Video) Year() int {
	t, err := v.Published()
	if err != nil {
		return 0
	}
	return t.Year()
}

// Game returns the display name of the first game association, if any.
func (v Video) Game() (string, bool) {
	for _, assoc := range v.Associations {
		if assoc.IsGame() {
			return assoc.Name, true
		}
	}
	return "", false
}

// Videos decodes the envelope results as a video list. Single-object
// results decode as a one-element list.
func (r *Response) Videos() ([]Video, error) {
	if len(r.Results) == 0 {
		return nil, nil
	}

	var videos []Video
	if err := json.Unmarshal(r.Results, &videos); err == nil {
		return videos, nil
	}

	var single Video
	if err := json.Unmarshal(r.Results, &single); err != nil {
		return nil, err
	}
	return []Video{single}, nil
}
