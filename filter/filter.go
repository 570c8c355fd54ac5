package filter

import (
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"gbgrab/catalog"
	"gbgrab/giantbomb"
)

// Episode is the expression environment for one catalog episode.
type Episode struct {
	ID            int
	GUID          string
	Name          string
	Deck          string
	Year          int
	LengthSeconds int
	Premium       bool
	SeasonName    string
	SeasonNumber  int
	EpisodeNumber int
	Game          string
	PublishDate   time.Time
}

// Filter is a compiled episode filter expression.
type Filter struct {
	program    *vm.Program
	expression string
}

// helperFunctions are the static helpers available in expressions.
func helperFunctions() map[string]any {
	return map[string]any{
		"contains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"startsWith": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"endsWith": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"minutes": func(seconds int) int {
			return seconds / 60
		},
		"parseDate": func(dateStr string) time.Time {
			t, _ := time.Parse("2006-01-02", dateStr)
			return t
		},
		"now": time.Now,
	}
}

// Compile compiles a filter expression.
func Compile(expression string) (*Filter, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, &CompilationError{Expression: expression, Reason: "empty filter expression"}
	}

	program, err := expr.Compile(expression,
		expr.Env(environment(Episode{})),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, &CompilationError{Expression: expression, Reason: err.Error(), Err: err}
	}

	return &Filter{
		program:    program,
		expression: expression,
	}, nil
}

// Expression returns the source text of the filter.
func (f *Filter) Expression() string {
	return f.expression
}

// Match evaluates the filter against one episode. A non-boolean result
// or a runtime failure counts as no match.
func (f *Filter) Match(ep Episode) bool {
	output, err := expr.Run(f.program, environment(ep))
	if err != nil {
		return false
	}

	matched, ok := output.(bool)
	return ok && matched
}

// Apply filters a video list against the catalog's preferred
// partition, so season-derived fields are available in expressions.
func (f *Filter) Apply(videos []giantbomb.Video, cat *catalog.Catalog) []giantbomb.Video {
	partition := cat.PreferredPartition()

	var out []giantbomb.Video
	for _, video := range videos {
		if f.Match(episodeEnv(video, partition)) {
			out = append(out, video)
		}
	}
	return out
}

// environment merges the episode fields and helper functions.
func environment(ep Episode) map[string]any {
	env := helperFunctions()
	env["ID"] = ep.ID
	env["GUID"] = ep.GUID
	env["Name"] = ep.Name
	env["Deck"] = ep.Deck
	env["Year"] = ep.Year
	env["LengthSeconds"] = ep.LengthSeconds
	env["Premium"] = ep.Premium
	env["SeasonName"] = ep.SeasonName
	env["SeasonNumber"] = ep.SeasonNumber
	env["EpisodeNumber"] = ep.EpisodeNumber
	env["Game"] = ep.Game
	env["PublishDate"] = ep.PublishDate
	return env
}

// episodeEnv derives the expression environment for a video from its
// position in a partition.
func episodeEnv(video giantbomb.Video, partition catalog.Partition) Episode {
	ep := Episode{
		ID:            video.ID,
		GUID:          video.GUID,
		Name:          video.Name,
		Deck:          video.Deck,
		Year:          video.Year(),
		LengthSeconds: video.LengthSeconds,
		Premium:       video.Premium,
	}

	if game, ok := video.Game(); ok {
		ep.Game = game
	}
	if published, err := video.Published(); err == nil {
		ep.PublishDate = published
	}
	if si, vi, ok := partition.Locate(video.ID); ok {
		ep.SeasonName = partition[si].Name
		ep.SeasonNumber = si + 1
		ep.EpisodeNumber = vi + 1
	}

	return ep
}
