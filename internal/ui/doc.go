// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for moving a single photo:
//  1. [PhotoListView] : Browse the photos taken on one day, with a thumbnail preview
//  2. [DateInputView] : Jump to a day by typing YYYY-MM-DD
//  3. [AlbumPickerView] : Choose the destination album (or the root album)
//  4. [ConfirmView] : Confirm transfer operation
//  5. [TransferView] : Monitor real-time progress updates
//  6. [ResultView] : Display the uploaded file or the failed stage
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Thumbnails are prefetched on a worker pool and delivered one message at a time; results of a previous day are dropped.
// Progress updates flow through a channel from the TransferEngine, providing non-blocking status reporting during transfers.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
