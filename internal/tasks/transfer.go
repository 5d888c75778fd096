// package tasks implements the single-photo transfer and thumbnail prefetch operations.
//
// The core abstraction is TransferEngine, which moves one photo from the source service to the destination.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/services"
	"github.com/desertthunder/photosync/internal/shared"
)

const (
	// minUnknownSizeBytes is the smallest download accepted when the file size is not declared.
	minUnknownSizeBytes = 1_000_000
)

var (
	// DefaultTokenChain tries the session download token only.
	DefaultTokenChain = []services.TokenKind{services.DownloadToken}

	// LegacyTokenChain retries a rejected download with the preview token, then the access token.
	LegacyTokenChain = []services.TokenKind{services.DownloadToken, services.PreviewToken, services.AccessToken}
)

// TransferResult describes a completed transfer.
type TransferResult struct {
	Photo    models.Photo       // Photo details as re-fetched before download
	File     models.File        // File that was downloaded
	FileName string             // Name sent to the destination
	AlbumID  string             // Destination album ("" is the root album)
	Bytes    int64              // Size of the uploaded file
	Token    services.TokenKind // Token that produced the accepted download
}

// HistoryRecorder persists transfer attempts. Implemented by repositories.TransferRepository.
type HistoryRecorder interface {
	Create(rec *models.TransferRecord) error
	Update(rec *models.TransferRecord) error
}

// TransferOpts configures a [TransferEngine].
type TransferOpts struct {
	TokenChain []services.TokenKind // Download tokens to try in order (default: [DefaultTokenChain])
	History    HistoryRecorder      // Optional transfer log
	Logger     *log.Logger
}

// TransferEngine downloads a photo's primary file from the source and uploads it to the destination.
type TransferEngine struct {
	source  services.SourceService
	dest    services.DestinationService
	chain   []services.TokenKind
	history HistoryRecorder
	logger  *log.Logger
}

// NewTransferEngine creates a new TransferEngine with the provided services.
func NewTransferEngine(source services.SourceService, dest services.DestinationService, opts TransferOpts) *TransferEngine {
	chain := opts.TokenChain
	if len(chain) == 0 {
		chain = DefaultTokenChain
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &TransferEngine{
		source:  source,
		dest:    dest,
		chain:   chain,
		history: opts.History,
		logger:  logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Transfer moves photo into albumID ("" uploads to the root album).
//
// Errors are [shared.StageError] values with the download or upload stage and the server's message.
func (e *TransferEngine) Transfer(ctx context.Context, photo models.Photo, albumID string, progress chan<- ProgressUpdate) (*TransferResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: PhotoPrism service not initialized", shared.ErrServiceUnavailable)
	}
	if e.dest == nil {
		return nil, fmt.Errorf("%w: Lychee service not initialized", shared.ErrServiceUnavailable)
	}

	rec := models.NewTransferRecord(photo, albumID)
	e.recordStart(rec)

	result, err := e.transfer(ctx, photo, albumID, rec, progress)
	if err != nil {
		stage, _ := shared.StageOf(err)
		rec.MarkFailed(string(stage), shared.MessageOf(err))
		e.recordFinish(rec)
		e.logger.Error("transfer failed", "photo", photo.UID, "stage", stage, "error", err)
		return nil, err
	}

	rec.MarkSucceeded(result.Bytes)
	e.recordFinish(rec)
	sendProgress(progress, doneUpdate(result))
	e.logger.Info("transfer complete", "photo", photo.UID, "file", result.FileName, "album", albumID, "bytes", result.Bytes)
	return result, nil
}

func (e *TransferEngine) transfer(ctx context.Context, photo models.Photo, albumID string, rec *models.TransferRecord, progress chan<- ProgressUpdate) (*TransferResult, error) {
	sendProgress(progress, fetchDetailsUpdate(photo))

	details, err := e.source.PhotoDetails(ctx, photo.UID)
	if err != nil {
		return nil, err
	}

	file, err := downloadableFile(*details)
	if err != nil {
		return nil, err
	}

	fileName := file.BaseName()
	rec.SetFileName(fileName)

	data, kind, err := e.download(ctx, file, progress)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, downloadedUpdate(file, len(data)))

	sendProgress(progress, uploadUpdate(fileName, albumID))
	if err := e.dest.Upload(ctx, data, fileName, albumID); err != nil {
		return nil, err
	}

	return &TransferResult{
		Photo:    *details,
		File:     file,
		FileName: fileName,
		AlbumID:  albumID,
		Bytes:    int64(len(data)),
		Token:    kind,
	}, nil
}

// downloadableFile selects the primary file and checks it can be requested.
func downloadableFile(photo models.Photo) (models.File, error) {
	file, ok := photo.PrimaryFile()
	if !ok {
		return models.File{}, shared.NewStageError(shared.StageDownload, shared.ErrTransfer, "No files found for photo", nil)
	}
	if file.Hash == "" {
		return models.File{}, shared.NewStageError(shared.StageDownload, shared.ErrTransfer, "No file hash found", nil)
	}
	return file, nil
}

// download walks the token chain until a response passes [ValidateDownload].
//
// Tokens are read from the session per attempt, so a rotation during the details
// request is picked up. Transport errors abort the chain.
func (e *TransferEngine) download(ctx context.Context, file models.File, progress chan<- ProgressUpdate) ([]byte, services.TokenKind, error) {
	var lastErr error

	for i, kind := range e.chain {
		token := kind.From(e.source.Tokens())
		if token == "" {
			lastErr = shared.NewStageError(shared.StageDownload, shared.ErrValidation, fmt.Sprintf("no %s token in session", kind), nil)
			continue
		}

		sendProgress(progress, downloadAttemptUpdate(file, kind.String(), i+1, len(e.chain)))

		resp, err := e.source.Download(ctx, file.Hash, token)
		if err != nil {
			return nil, kind, err
		}

		if err := ValidateDownload(resp.StatusCode, resp.Headers.Get("Content-Type"), len(resp.Body), file.Size); err != nil {
			e.logger.Warn("download rejected", "hash", file.Hash, "token", kind, "error", err)
			lastErr = err
			continue
		}

		return resp.Body, kind, nil
	}

	return nil, 0, shared.NewStageError(shared.StageDownload, shared.ErrTransfer, "All download methods failed", lastErr)
}

// ValidateDownload rejects error pages and placeholders served with a success status.
//
// A download is accepted when the status is 200, the content type is an image, a video or
// application/octet-stream (but never SVG), and the body is at least 80% of the declared size.
// With no declared size the body must exceed 1,000,000 bytes.
func ValidateDownload(status int, contentType string, n int, declared int64) error {
	if status != 200 {
		return shared.NewStageError(shared.StageDownload, shared.ErrValidation, fmt.Sprintf("unexpected status %d", status), nil)
	}

	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "svg") || !(strings.Contains(ct, "image/") || strings.Contains(ct, "video/") || strings.Contains(ct, "application/octet-stream")) {
		return shared.NewStageError(shared.StageDownload, shared.ErrValidation, fmt.Sprintf("unexpected content type %q", contentType), nil)
	}

	if declared > 0 {
		if int64(n)*5 < declared*4 {
			return shared.NewStageError(shared.StageDownload, shared.ErrValidation, fmt.Sprintf("received %d of %d bytes", n, declared), nil)
		}
		return nil
	}

	if n <= minUnknownSizeBytes {
		return shared.NewStageError(shared.StageDownload, shared.ErrValidation, fmt.Sprintf("received only %d bytes of unknown size", n), nil)
	}
	return nil
}

// recordStart and recordFinish write to the optional history.
// Failures are logged and never interrupt a transfer.
func (e *TransferEngine) recordStart(rec *models.TransferRecord) {
	if e.history == nil {
		return
	}
	if err := e.history.Create(rec); err != nil {
		e.logger.Warn("failed to record transfer", "photo", rec.PhotoUID(), "error", err)
	}
}

func (e *TransferEngine) recordFinish(rec *models.TransferRecord) {
	if e.history == nil || rec.ID() == "" {
		return
	}
	if err := e.history.Update(rec); err != nil {
		e.logger.Warn("failed to update transfer record", "id", rec.ID(), "error", err)
	}
}
