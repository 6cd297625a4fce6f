package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
)

type playOptions struct {
	id        string
	title     string
	artist    string
	thumbnail string
	mood      string
	file      string
	wait      time.Duration
}

func newPlayCommand(opts *options) *cobra.Command {
	p := &playOptions{}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play an item and record it in the history",
		Long: `Play an item described by flags, or a local audio file whose tags
describe it. The play is recorded under --mood (default "Music").`,
		Example: `  moodtune play --id abc123 --title "Weightless" --artist "Marconi Union" --mood Calm
  moodtune play --file ~/Music/weightless.mp3 --mood Calm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, opts, p)
		},
	}

	cmd.Flags().StringVar(&p.id, "id", "", "player item ID")
	cmd.Flags().StringVar(&p.title, "title", "", "display title")
	cmd.Flags().StringVar(&p.artist, "artist", "", "display artist")
	cmd.Flags().StringVar(&p.thumbnail, "thumbnail", "", "artwork URL")
	cmd.Flags().StringVar(&p.mood, "mood", "", "mood label recorded in the history")
	cmd.Flags().StringVar(&p.file, "file", "", "local audio file to play")
	cmd.Flags().DurationVar(&p.wait, "wait", 10*time.Second, "how long to wait for the player")
	cmd.MarkFlagsMutuallyExclusive("id", "file")
	cmd.MarkFlagsOneRequired("id", "file")

	return cmd
}

func runPlay(cmd *cobra.Command, opts *options, p *playOptions) error {
	application, err := opts.newApplication()
	if err != nil {
		return err
	}
	defer application.Shutdown()

	item := domain.MediaItem{ID: p.id, Title: p.title, Artist: p.artist, Thumbnail: p.thumbnail}
	if p.file != "" {
		resolved, err := application.Resolver().Resolve(p.file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p.file, err)
		}
		item = resolved
		// Flags override tags
		if p.title != "" {
			item.Title = p.title
		}
		if p.artist != "" {
			item.Artist = p.artist
		}
		if p.thumbnail != "" {
			item.Thumbnail = p.thumbnail
		}
	}
	if err := item.Validate(); err != nil {
		return err
	}

	application.Start()

	ctx, cancel := context.WithTimeout(cmd.Context(), p.wait)
	defer cancel()
	if err := application.WaitReady(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("player did not become ready within %s: %w", p.wait, err)
		}
		return err
	}

	var note domain.NowPlayingEvent
	id := application.EventBus().Subscribe(domain.EventNowPlaying, func(event domain.Event) {
		if e, ok := event.(domain.NowPlayingEvent); ok {
			note = e
		}
	})
	application.Session().Play(item, p.mood)
	application.EventBus().Unsubscribe(id)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, note.Title)
	if note.Subtitle != "" {
		fmt.Fprintln(out, note.Subtitle)
	}
	return nil
}
