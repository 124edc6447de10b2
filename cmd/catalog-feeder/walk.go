package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/catalog-feeder/pkg/feeder"
	"github.com/Sternrassler/catalog-feeder/pkg/order"
	"github.com/Sternrassler/catalog-feeder/pkg/playlist"
	"github.com/spf13/cobra"
)

type walkParams struct {
	Steps    int
	Backward bool
	Loop     bool
	Slots    map[string]string
}

func walkCmd(root *rootParams) *cobra.Command {
	params := &walkParams{}
	cmd := &cobra.Command{
		Use:   "walk",
		Short: "Build a playlist and print the songs visited by stepping through it",
		Example: `  catalog-feeder walk --steps 20
  catalog-feeder walk --slot order=popular --slot creator=someone --backward --loop`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root, order.DefaultRegistry())
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			return runWalk(cmd.Context(), a.feeder, params, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&params.Steps, "steps", "n", 10, "number of moves after the first song")
	cmd.Flags().BoolVarP(&params.Backward, "backward", "b", false, "move with Previous instead of Next")
	cmd.Flags().BoolVar(&params.Loop, "loop", false, "wrap around at the catalog edges")
	cmd.Flags().StringToStringVarP(&params.Slots, "slot", "s", nil, "query slot as key=value, e.g. order=shuffle")
	return cmd
}

// windowFeeder is the part of the feeder a walk needs.
type windowFeeder interface {
	Build(ctx context.Context, q feeder.Query, win playlist.Window) (feeder.Result, error)
	Next(ctx context.Context, q feeder.Query, win playlist.Window) error
	Previous(ctx context.Context, q feeder.Query, win playlist.Window) error
}

// runWalk builds a playlist and prints one line per visited song. Reaching a
// catalog edge ends the walk early without error.
func runWalk(ctx context.Context, f windowFeeder, params *walkParams, out io.Writer) error {
	q := feeder.Query{Slots: params.Slots}
	p := playlist.New("walk", params.Slots, params.Loop)

	result, err := f.Build(ctx, q, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "# %s, %d albums\n", q.Order(), result.Total)
	if len(p.Items()) == 0 {
		return nil
	}
	printSong(out, p)

	move, edge := f.Next, feeder.ErrNoNextSong
	if params.Backward {
		move, edge = f.Previous, feeder.ErrNoPreviousSong
	}

	for i := 0; i < params.Steps; i++ {
		if err := move(ctx, q, p); err != nil {
			if errors.Is(err, edge) {
				fmt.Fprintln(out, "# "+err.Error())
				return nil
			}
			return err
		}
		printSong(out, p)
	}
	return nil
}

func printSong(out io.Writer, p *playlist.Playlist) {
	song, ok := p.Current()
	if !ok {
		return
	}
	title := strings.TrimSpace(song.AlbumTitle + " / " + song.Title)
	fmt.Fprintf(out, "%4d:%-3d %-24s %s\n", song.AlbumIndex, song.SongIndex, song.Identifier, title)
}
