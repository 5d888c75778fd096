package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/photosync/internal/formatter"
	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/repositories"
	"github.com/desertthunder/photosync/internal/shared"
	"github.com/desertthunder/photosync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Transfer moves the photo --uid into the album --album.
func (r *Runner) Transfer(ctx context.Context, cmd *cli.Command) error {
	uid := cmd.String("uid")
	albumID := cmd.String("album")
	if uid == "" {
		return fmt.Errorf("%w: --uid is required", shared.ErrMissingArgument)
	}

	source, dest := r.sourceService(), r.destService()
	if err := r.connect(ctx, source, dest); err != nil {
		return err
	}
	defer source.Close()
	defer dest.Close()

	history, closeHistory, err := r.openHistory()
	if err != nil {
		return err
	}
	defer closeHistory()

	engine := r.newEngine(history, cmd.Bool("legacy-tokens"))

	r.logger.Info("starting transfer", "uid", uid, "album", albumID)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchDetails:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.Download:
				r.writePlain("⬇️  %s\n", update.Message)
			case tasks.Upload:
				r.writePlain("⬆️  %s\n", update.Message)
			}
		}
	}()

	result, err := engine.Transfer(ctx, models.Photo{UID: uid}, albumID, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		if stage, ok := shared.StageOf(err); ok {
			r.writePlain("\n✗ Transfer failed during %s: %s\n", stage, shared.MessageOf(err))
		}
		return err
	}

	album := albumID
	if album == "" {
		album = "root"
	}

	r.writePlain("\n")
	r.writePlainHeader("Transfer Complete!")
	r.writePlain("Photo: %s (%s)\n", result.Photo.DisplayTitle(), result.Photo.UID)
	r.writePlain("File: %s (%d bytes)\n", result.FileName, result.Bytes)
	r.writePlain("Album: %s\n", album)
	r.writePlain("Download token: %s\n", result.Token)
	return nil
}

// History lists recorded transfers, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer closeDB(r.logger, db)

	records, err := repositories.NewTransferRepository(db).List(map[string]any{
		"limit":  int(cmd.Int("limit")),
		"status": cmd.String("status"),
	})
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}
	switch format {
	case formatter.FormatCSV:
		data, err := formatter.HistoryToCSV(records)
		if err != nil {
			return err
		}
		return r.export(cmd.String("output"), data)
	case formatter.FormatMarkdown:
		return r.export(cmd.String("output"), formatter.HistoryToMarkdown(records))
	}

	if len(records) == 0 {
		r.writePlain("No transfers recorded\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Transfers (%d)", len(records)))
	for _, rec := range records {
		r.writePlain("#%-4d %-9s %-18s %s\n", rec.Sequence(), rec.Status(), rec.PhotoUID(), rec.StartedAt().Format(time.DateTime))
		switch rec.Status() {
		case models.TransferSucceeded:
			r.writePlain("      %s (%d bytes) -> album %q\n", rec.FileName(), rec.Bytes(), rec.AlbumID())
		case models.TransferFailed:
			r.writePlain("      %s: %s\n", rec.Stage(), rec.ErrorMessage())
		}
	}
	return nil
}
