package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gbgrab/catalog"
	"gbgrab/filter"
	"gbgrab/giantbomb"
)

var listEpisodes bool

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List seasons or episodes of a show",
	Long: `List the derived seasons of a show, or with --episodes the
individual episodes. Seasons can be grouped by release year or by
associated game.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().IntVar(&showID, "show", 0, "video show ID")
	listCmd.Flags().BoolVar(&listEpisodes, "episodes", false, "list individual episodes instead of seasons")
	listCmd.Flags().StringVar(&scheme, "scheme", "", "season grouping scheme (year/game)")
	listCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "episode filter expression")
	listCmd.MarkFlagRequired("show")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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
	partition := cat.Partition(kind)

	videos := cat.Videos
	if filterExpr != "" {
		f, err := filter.Compile(filterExpr)
		if err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
		videos = f.Apply(videos, cat)
	}

	if listEpisodes {
		printEpisodes(videos, partition)
	} else {
		printSeasons(partition, videos)
	}

	fmt.Printf("\n%s episodes across %d seasons (%s scheme)\n",
		humanize.Comma(int64(len(videos))), len(partition), kind)
	return nil
}

func printSeasons(partition catalog.Partition, videos []giantbomb.Video) {
	included := make(map[int]struct{}, len(videos))
	for _, v := range videos {
		included[v.ID] = struct{}{}
	}

	rows := make([][]string, 0, len(partition))
	for i, season := range partition {
		count := 0
		var first, last string
		for _, v := range season.Videos {
			if _, ok := included[v.ID]; !ok {
				continue
			}
			count++
			if t, err := v.Published(); err == nil {
				if first == "" {
					first = t.Format("2006-01-02")
				}
				last = t.Format("2006-01-02")
			}
		}

		span := ""
		if first != "" {
			span = first + " to " + last
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			season.Name,
			strconv.Itoa(count),
			span,
		})
	}

	fmt.Println(renderTable(
		[]string{"#", "Season", "Episodes", "Dates"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	))
}

func printEpisodes(videos []giantbomb.Video, partition catalog.Partition) {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		code := "-"
		if si, ei, ok := partition.Locate(v.ID); ok {
			code = fmt.Sprintf("S%02dE%02d", si+1, ei+1)
		}

		aired := ""
		if t, err := v.Published(); err == nil {
			aired = humanize.Time(t)
		}

		length := (time.Duration(v.LengthSeconds) * time.Second).String()
		rows = append(rows, []string{
			code,
			strconv.Itoa(v.ID),
			v.Name,
			aired,
			length,
		})
	}

	fmt.Println(renderTable(
		[]string{"Episode", "ID", "Name", "Aired", "Length"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight},
	))
}

// partitionKind maps the --scheme flag onto a partition, defaulting to
// the catalog's preferred one.
func partitionKind(scheme string, cat *catalog.Catalog) (catalog.PartitionKind, error) {
	switch scheme {
	case "":
		return cat.Preferred, nil
	case "year":
		return catalog.ByYear, nil
	case "game":
		return catalog.ByGame, nil
	default:
		return "", fmt.Errorf("invalid scheme: %s (must be 'year' or 'game')", scheme)
	}
}
