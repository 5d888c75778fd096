package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/photosync/internal/formatter"
	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/services"
	"github.com/desertthunder/photosync/internal/shared"
	"github.com/desertthunder/photosync/internal/tasks"
	"github.com/gabriel-vasile/mimetype"
	"github.com/urfave/cli/v3"
)

// parseDate validates a YYYY-MM-DD flag value. Empty means today.
func parseDate(s string) (string, error) {
	if s == "" {
		return time.Now().Format(time.DateOnly), nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", shared.ErrInvalidArgument, s)
	}
	return s, nil
}

func (r *Runner) searchCount(cmd *cli.Command) int {
	if n := int(cmd.Int("count")); n > 0 {
		return n
	}
	return r.config.Thumbnails.SearchCount
}

// Connect logs in to both services and reports each session.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) error {
	source, dest := r.sourceService(), r.destService()
	err := r.connect(ctx, source, dest)

	for _, svc := range []services.Service{source, dest} {
		if svc.Connected() {
			r.writePlain("✓ %s connected\n", svc.Name())
		} else {
			r.writePlain("✗ %s not connected\n", svc.Name())
		}
	}
	return err
}

// Search lists the photos taken on --date.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	date, err := parseDate(cmd.String("date"))
	if err != nil {
		return err
	}

	source := r.sourceService()
	if err := r.connect(ctx, source); err != nil {
		return err
	}
	defer source.Close()

	photos, err := source.Search(ctx, date, r.searchCount(cmd))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(photos, cmd.Bool("pretty"))
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}
	switch format {
	case formatter.FormatCSV:
		data, err := formatter.PhotosToCSV(photos)
		if err != nil {
			return err
		}
		return r.export(cmd.String("output"), data)
	case formatter.FormatMarkdown:
		return r.export(cmd.String("output"), formatter.PhotosToMarkdown(date, photos))
	}

	r.writePlainHeader(fmt.Sprintf("Photos taken on %s (%d)", date, len(photos)))
	for _, p := range photos {
		r.writePlain("%-18s %-20s %s\n", p.UID, p.TakenAtLocal, p.DisplayTitle())
		if f, ok := p.PrimaryFile(); ok {
			r.writePlain("  %s (%d bytes)\n", f.BaseName(), f.Size)
		}
	}
	return nil
}

// Albums prints the destination album tree, root album first.
func (r *Runner) Albums(ctx context.Context, cmd *cli.Command) error {
	dest := r.destService()
	if err := r.connect(ctx, dest); err != nil {
		return err
	}
	defer dest.Close()

	nodes, err := dest.Albums(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if nodes == nil {
			nodes = []models.AlbumNode{}
		}
		return r.writeJSON(nodes, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", services.RootAlbumLabel)
	for _, n := range nodes {
		r.writePlain("%s\n", n.Label())
	}
	return nil
}

// Thumbs prefetches the thumbnails of --date and writes them to --out.
func (r *Runner) Thumbs(ctx context.Context, cmd *cli.Command) error {
	date, err := parseDate(cmd.String("date"))
	if err != nil {
		return err
	}

	out := cmd.String("out")
	if out == "" {
		return fmt.Errorf("%w: --out is required", shared.ErrMissingArgument)
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	source := r.sourceService()
	if err := r.connect(ctx, source); err != nil {
		return err
	}
	defer source.Close()

	photos, err := source.Search(ctx, date, r.searchCount(cmd))
	if err != nil {
		return err
	}

	r.writePlain("Fetching %d thumbnails for %s...\n", len(photos), date)

	prefetcher := r.newPrefetcher(false, nil)
	var written, missing, failed int
	for res := range prefetcher.Prefetch(ctx, photos, source.Thumbnail) {
		switch {
		case res.Err != nil:
			failed++
			r.writePlain("  ✗ %s: %v\n", res.UID, res.Err)
		case res.NoPreview:
			missing++
			r.writePlain("  - %s: no preview available\n", res.UID)
		default:
			path, err := writeThumbnail(out, res)
			if err != nil {
				return err
			}
			written++
			r.writePlain("  ✓ %s\n", path)
		}
	}

	r.writePlainln("Saved %d, no preview %d, failed %d", written, missing, failed)
	return nil
}

func writeThumbnail(dir string, res tasks.ThumbnailResult) (string, error) {
	ext := mimetype.Detect(res.Data).Extension()
	if ext == "" {
		ext = ".jpg"
	}

	path := filepath.Join(dir, res.UID+ext)
	if err := os.WriteFile(path, res.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write thumbnail: %w", err)
	}
	return path, nil
}
