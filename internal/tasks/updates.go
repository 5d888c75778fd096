package tasks

import (
	"fmt"

	"github.com/desertthunder/photosync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchDetails Phase = iota
	Download
	Upload
	Done
	Prefetch
)

func (p Phase) String() string {
	switch p {
	case FetchDetails:
		return "details"
	case Download:
		return "download"
	case Upload:
		return "upload"
	case Done:
		return "done"
	case Prefetch:
		return "prefetch"
	default:
		return ""
	}
}

// transferSteps is the number of steps reported by a single transfer.
const transferSteps = 4

func fetchDetailsUpdate(photo models.Photo) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDetails,
		Step:    1,
		Total:   transferSteps,
		Message: fmt.Sprintf("Fetching details for %s...", photo.DisplayTitle()),
	}
}

func downloadAttemptUpdate(file models.File, token string, attempt, attempts int) ProgressUpdate {
	msg := fmt.Sprintf("Downloading %s...", file.BaseName())
	if attempts > 1 {
		msg = fmt.Sprintf("Downloading %s (%s token, %d/%d)...", file.BaseName(), token, attempt, attempts)
	}
	return ProgressUpdate{
		Phase:   Download,
		Step:    2,
		Total:   transferSteps,
		Message: msg,
	}
}

func downloadedUpdate(file models.File, n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    2,
		Total:   transferSteps,
		Message: fmt.Sprintf("Downloaded %s (%s)", file.BaseName(), humanBytes(int64(n))),
	}
}

func uploadUpdate(fileName, albumID string) ProgressUpdate {
	target := "root album"
	if albumID != "" {
		target = "album " + albumID
	}
	return ProgressUpdate{
		Phase:   Upload,
		Step:    3,
		Total:   transferSteps,
		Message: fmt.Sprintf("Uploading %s to %s...", fileName, target),
	}
}

func doneUpdate(res *TransferResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    transferSteps,
		Total:   transferSteps,
		Message: fmt.Sprintf("✓ Transferred %s (%s)", res.FileName, humanBytes(res.Bytes)),
		Data:    res,
	}
}

func prefetchUpdate(done, total int, res ThumbnailResult) ProgressUpdate {
	status := "✓"
	switch {
	case res.Err != nil:
		status = "✗"
	case res.NoPreview:
		status = "-"
	}
	return ProgressUpdate{
		Phase:   Prefetch,
		Step:    done,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", done, total, status, res.UID),
		Data:    res,
	}
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
