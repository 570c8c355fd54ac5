package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"gbgrab/catalog"
	"gbgrab/download"
	"gbgrab/filter"
	"gbgrab/giantbomb"
	"gbgrab/ranges"
)

var (
	fromSpec    string
	afterSpec   string
	toSpec      string
	throughSpec string
	quality     string
	outputDir   string
	noProgress  bool
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a range of episodes from a show",
	Long: `Download episodes from a show, optionally bounded by range
endpoints. Endpoints accept an episode name, a flat episode number,
S04E17 style identifiers, or a season reference:

  gbgrab download --show 12 --from "Thirteen Deadly Sims" --through S04E02
  gbgrab download --show 12 --after E100 --to E120

--from and --through include their own episode; --after and --to
exclude it. With no endpoints the whole show is downloaded.`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().IntVar(&showID, "show", 0, "video show ID")
	downloadCmd.Flags().StringVar(&fromSpec, "from", "", "first episode of the range, inclusive")
	downloadCmd.Flags().StringVar(&afterSpec, "after", "", "episode preceding the range, exclusive")
	downloadCmd.Flags().StringVar(&toSpec, "to", "", "episode following the range, exclusive")
	downloadCmd.Flags().StringVar(&throughSpec, "through", "", "last episode of the range, inclusive")
	downloadCmd.Flags().StringVar(&quality, "quality", "", "quality tier (highest/hd/high/low)")
	downloadCmd.Flags().StringVar(&scheme, "scheme", "", "season grouping scheme (year/game)")
	downloadCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "episode filter expression")
	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", "", "download directory (default from config)")
	downloadCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	downloadCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "show what would be downloaded without downloading")
	downloadCmd.MarkFlagRequired("show")
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := catalog.NewBuilder(client, logger, cfg.Catalog.CopyYear)
	cat, err := builder.Build(ctx, showID)
	if err != nil {
		return err
	}

	if len(cat.Videos) == 0 {
		fmt.Println("No episodes found for this show.")
		return nil
	}

	kind, err := partitionKind(scheme, cat)
	if err != nil {
		return err
	}

	selected, err := selectEpisodes(ctx, cat, kind)
	if err != nil {
		return err
	}

	if filterExpr != "" {
		f, err := filter.Compile(filterExpr)
		if err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
		selected = f.Apply(selected, cat)
	}

	if len(selected) == 0 {
		fmt.Println("No episodes matched the requested range.")
		return nil
	}

	tier := download.Quality(cfg.Download.Quality)
	if quality != "" {
		tier = download.Quality(quality)
	}

	dir := cfg.Download.Directory
	if outputDir != "" {
		dir = outputDir
	}

	saverOpts := []download.Option{}
	if !noProgress && !dryRun {
		saverOpts = append(saverOpts, download.WithProgress())
	}
	saver := download.NewSaver(cfg.API.Key, logger, saverOpts...)

	if dryRun {
		fmt.Printf("[DRY RUN] Would download %d episodes:\n", len(selected))
		for _, video := range selected {
			dest := filepath.Join(dir, download.Filename(cfg.Download.Template, video, cat, tier))
			plan, err := saver.Touch(video, dest, tier)
			if err != nil {
				fmt.Printf("  ✗ %s: %v\n", video.Name, err)
				continue
			}
			fmt.Printf("  - %s\n", plan)
		}
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	fmt.Printf("Downloading %d episodes to %s\n", len(selected), dir)

	// Sequential on purpose: the API rate limit applies to media
	// downloads too.
	var failures int
	for i, video := range selected {
		dest := filepath.Join(dir, download.Filename(cfg.Download.Template, video, cat, tier))
		fmt.Printf("[%d/%d] %s\n", i+1, len(selected), video.Name)

		if err := saver.Save(ctx, video, dest, tier); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error().Err(err).Str("video", video.Name).Msg("Download failed")
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d downloads failed", failures, len(selected))
	}

	fmt.Printf("✓ Downloaded %d episodes\n", len(selected))
	return nil
}

// selectEpisodes resolves the endpoint flags into anchors and returns
// the episodes inside every bound, in publish order.
func selectEpisodes(ctx context.Context, cat *catalog.Catalog, kind catalog.PartitionKind) ([]giantbomb.Video, error) {
	endpoints := []ranges.Endpoint{}
	for _, spec := range []struct {
		keyword ranges.Keyword
		value   string
	}{
		{ranges.From, fromSpec},
		{ranges.After, afterSpec},
		{ranges.To, toSpec},
		{ranges.Through, throughSpec},
	} {
		if spec.value != "" {
			endpoints = append(endpoints, ranges.Endpoint{Keyword: spec.keyword, Text: spec.value})
		}
	}

	matcher := catalog.NewMatcher(client, logger)
	resolver := ranges.NewResolver(matcher, logger)

	anchors := make([]*ranges.Anchor, 0, len(endpoints))
	for _, ep := range endpoints {
		anchor, err := resolver.Resolve(ctx, ep, cat, kind)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve --%s %q: %w", ep.Keyword, ep.Text, err)
		}
		anchors = append(anchors, anchor)
	}

	included := ranges.Intersect(anchors, cat)
	return ranges.Selected(included, cat), nil
}
