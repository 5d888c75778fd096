// Package tasks moves photos from PhotoPrism to Lychee and prefetches thumbnails, with real-time progress reporting.
//
// # Transfers
//
// [TransferEngine.Transfer] moves a single photo:
//
//  1. Re-fetches the photo details by UID, since search results may lack file hashes
//  2. Selects the primary file (first file flagged Primary, else the first file)
//  3. Downloads /api/v1/dl/{hash} with each token of the configured chain until a response
//     passes [ValidateDownload]
//  4. Uploads the bytes to the selected Lychee album
//
// The default chain only uses the session download token. [LegacyTokenChain] adds the preview
// and access tokens as fallbacks.
//
// # Download Validation
//
// PhotoPrism sometimes answers 200 with an error page or an SVG placeholder. A download is
// accepted only for image, video or octet-stream content (never SVG) of at least 80% of the
// declared file size, or more than 1,000,000 bytes when no size is declared.
//
// # Thumbnail Prefetch
//
// [Prefetcher.Prefetch] fetches previews on a pond worker pool of at most [MaxPrefetchWorkers]
// workers and publishes each [ThumbnailResult] on a channel. Workers never touch display state.
// Results are cached by photo UID in a write-once [ThumbnailCache].
//
// [Prefetcher.Reset] starts a new result set on every search: the cache is flushed and results
// still in flight for the previous set are dropped before publishing.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Transfer History
//
// The optional [HistoryRecorder] interface persists one record per transfer attempt
// (repositories.TransferRepository). Recording errors are logged and never fail a transfer.
package tasks
