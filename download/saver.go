package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"gbgrab/giantbomb"
)

// Quality selects a source URL tier.
type Quality string

const (
	// QualityHighest tries hd, then high, then low.
	QualityHighest Quality = "highest"
	// QualityHD is the hd tier only.
	QualityHD Quality = "hd"
	// QualityHigh is the high tier only.
	QualityHigh Quality = "high"
	// QualityLow is the low tier only.
	QualityLow Quality = "low"
)

// Saver writes episode files with crash-safe replacement. A partially
// written download never clobbers an existing valid file.
type Saver struct {
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
	progress   bool
}

// Option configures a Saver.
type Option func(*Saver)

// WithProgress enables a terminal progress bar during downloads.
func WithProgress() Option {
	return func(s *Saver) {
		s.progress = true
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(s *Saver) {
		s.httpClient = httpClient
	}
}

// NewSaver creates a Saver. The credential is appended to media URLs
// at request time only and never logged.
func NewSaver(apiKey string, logger zerolog.Logger, opts ...Option) *Saver {
	s := &Saver{
		apiKey: apiKey,
		// Media downloads run long; no overall timeout.
		httpClient: &http.Client{},
		logger:     logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SourceURL picks the download URL for a quality tier. QualityHighest
// falls back through hd, high, and low until one is non-empty;
// explicit tiers only try their own URL.
func SourceURL(video giantbomb.Video, quality Quality) (string, Quality, error) {
	tiers := []struct {
		quality Quality
		url     string
	}{
		{QualityHD, video.HDURL},
		{QualityHigh, video.HighURL},
		{QualityLow, video.LowURL},
	}

	if quality == QualityHighest {
		for _, tier := range tiers {
			if tier.url != "" {
				return tier.url, tier.quality, nil
			}
		}
		return "", "", fmt.Errorf("%w: %q", ErrNoSource, video.Name)
	}

	for _, tier := range tiers {
		if tier.quality == quality {
			if tier.url == "" {
				return "", "", fmt.Errorf("%w: %q has no %s source", ErrNoSource, video.Name, quality)
			}
			return tier.url, tier.quality, nil
		}
	}

	return "", "", fmt.Errorf("unknown quality tier: %s", quality)
}

// Save downloads one episode to dest. The body streams to a temporary
// sibling first; an existing dest is backed up, replaced, and the
// backup removed, so a crash at any point leaves a valid file behind.
func (s *Saver) Save(ctx context.Context, video giantbomb.Video, dest string, quality Quality) error {
	source, tier, err := SourceURL(video, quality)
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("video", video.Name).
		Str("quality", string(tier)).
		Str("dest", dest).
		Msg("Downloading episode")

	authorized, err := s.authorize(source)
	if err != nil {
		return fmt.Errorf("invalid source URL for %q: %w", video.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authorized, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed for %q: %w", video.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed for %q: unexpected status code %d", video.Name, resp.StatusCode)
	}

	part := dest + ".part"
	if err := s.writePart(part, resp.Body, resp.ContentLength, video.Name); err != nil {
		os.Remove(part)
		return err
	}

	return replace(part, dest)
}

// authorize appends the credential to a media URL.
func (s *Saver) authorize(source string) (string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("api_key", s.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// writePart streams the body to the temporary file.
func (s *Saver) writePart(part string, body io.Reader, size int64, name string) error {
	f, err := os.Create(part)
	if err != nil {
		return err
	}

	var w io.Writer = f
	if s.progress {
		bar := progressbar.DefaultBytes(size, name)
		w = io.MultiWriter(f, bar)
	}

	if _, err := io.Copy(w, body); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// replace swaps the finished part file into place: back up the old
// file, rename the new one over the destination, drop the backup.
func replace(part, dest string) error {
	backup := dest + ".bak"
	hadExisting := false

	if _, err := os.Stat(dest); err == nil {
		hadExisting = true
		if err := os.Rename(dest, backup); err != nil {
			return err
		}
	}

	if err := os.Rename(part, dest); err != nil {
		if hadExisting {
			// Put the old file back; the part file stays for inspection.
			os.Rename(backup, dest)
		}
		return err
	}

	if hadExisting {
		os.Remove(backup)
	}
	return nil
}

// Touch is a dry-run helper: it reports what Save would do without
// performing any I/O.
func (s *Saver) Touch(video giantbomb.Video, dest string, quality Quality) (string, error) {
	_, tier, err := SourceURL(video, quality)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (%s)", dest, tier), nil
}
