// package formatter provides functions to export transfer history and search results to various formats (CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/photosync/internal/models"
)

// Format selects an export layout.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts "text", "csv", "markdown" and "md". Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q (expected text, csv or markdown)", s)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// HistoryToCSV converts transfer records to CSV with columns:
// Sequence, Status, PhotoUID, Title, File, Album, Bytes, Stage, Error, Started, Completed
func HistoryToCSV(records []*models.TransferRecord) ([]byte, error) {
	headers := []string{"Sequence", "Status", "PhotoUID", "Title", "File", "Album", "Bytes", "Stage", "Error", "Started", "Completed"}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		started := rec.StartedAt()
		rows = append(rows, []string{
			strconv.Itoa(rec.Sequence()),
			string(rec.Status()),
			rec.PhotoUID(),
			rec.PhotoTitle(),
			rec.FileName(),
			rec.AlbumID(),
			strconv.FormatInt(rec.Bytes(), 10),
			rec.Stage(),
			rec.ErrorMessage(),
			formatTime(&started),
			formatTime(rec.CompletedAt()),
		})
	}

	return writeCSV(headers, rows)
}

// HistoryToMarkdown renders transfer records as a Markdown table.
func HistoryToMarkdown(records []*models.TransferRecord) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Transfer history\n\n")
	buf.WriteString(fmt.Sprintf("**Transfers**: %d\n\n", len(records)))
	buf.WriteString("| # | Status | Photo | File | Album | Result |\n")
	buf.WriteString("|---|--------|-------|------|-------|--------|\n")

	for _, rec := range records {
		album := rec.AlbumID()
		if album == "" {
			album = "root"
		}

		result := fmt.Sprintf("%d bytes", rec.Bytes())
		if rec.Status() == models.TransferFailed {
			result = fmt.Sprintf("%s: %s", rec.Stage(), rec.ErrorMessage())
		}

		buf.WriteString(fmt.Sprintf("| %d | %s | %s (%s) | %s | %s | %s |\n",
			rec.Sequence(), rec.Status(), escapeCell(rec.PhotoTitle()), rec.PhotoUID(),
			escapeCell(rec.FileName()), album, escapeCell(result)))
	}

	return buf.Bytes()
}

// PhotosToCSV converts search results to CSV with columns: UID, Title, TakenAt, Type, File, Size
func PhotosToCSV(photos []models.Photo) ([]byte, error) {
	headers := []string{"UID", "Title", "TakenAt", "Type", "File", "Size"}

	rows := make([][]string, 0, len(photos))
	for _, p := range photos {
		var name, size string
		if f, ok := p.PrimaryFile(); ok {
			name, size = f.BaseName(), strconv.FormatInt(f.Size, 10)
		}
		rows = append(rows, []string{p.UID, p.Title, p.TakenAtLocal, p.Type, name, size})
	}

	return writeCSV(headers, rows)
}

// PhotosToMarkdown renders the photos taken on date as a numbered Markdown list.
func PhotosToMarkdown(date string, photos []models.Photo) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Photos taken on %s\n\n", date))
	buf.WriteString(fmt.Sprintf("**Photos**: %d\n\n", len(photos)))

	for i, p := range photos {
		filePart := ""
		if f, ok := p.PrimaryFile(); ok {
			filePart = fmt.Sprintf(" (%s)", f.BaseName())
		}
		buf.WriteString(fmt.Sprintf("%d. %s `%s`%s\n", i+1, p.DisplayTitle(), p.UID, filePart))
	}

	return buf.Bytes()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// WriteExport writes data to path, replacing an existing file.
func WriteExport(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("empty export path")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
