package formatter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/photosync/internal/models"
)

func sampleRecords() []*models.TransferRecord {
	ok := models.NewTransferRecord(models.Photo{UID: "p1", Title: "Harbour | Dawn"}, "7")
	ok.SetSequence(2)
	ok.SetFileName("IMG_1.jpg")
	ok.MarkSucceeded(4096)

	failed := models.NewTransferRecord(models.Photo{UID: "p2", Title: "Fog"}, "")
	failed.SetSequence(1)
	failed.MarkFailed("download", "All download methods failed")

	return []*models.TransferRecord{ok, failed}
}

func samplePhotos() []models.Photo {
	return []models.Photo{
		{UID: "p1", Title: "Harbour", TakenAtLocal: "2024-06-15T08:30:00Z", Type: "image",
			Files: []models.File{{Hash: "h1", Name: "2024/IMG_1.jpg", Size: 2048, Primary: true}}},
		{UID: "p2"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"CSV", FormatCSV, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseFormat(%q) error = %v, want error %v", tt.in, err, tt.err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExporters(t *testing.T) {
	t.Run("HistoryToCSV", func(t *testing.T) {
		data, err := HistoryToCSV(sampleRecords())
		if err != nil {
			t.Fatalf("HistoryToCSV failed: %v", err)
		}

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(rows))
		}
		if strings.Join(rows[0][:4], ",") != "Sequence,Status,PhotoUID,Title" {
			t.Errorf("unexpected headers: %v", rows[0])
		}
		if rows[1][1] != "succeeded" || rows[1][6] != "4096" || rows[1][10] == "" {
			t.Errorf("unexpected success row: %v", rows[1])
		}
		if rows[2][7] != "download" || rows[2][8] != "All download methods failed" {
			t.Errorf("unexpected failure row: %v", rows[2])
		}
	})

	t.Run("HistoryToMarkdown", func(t *testing.T) {
		output := string(HistoryToMarkdown(sampleRecords()))

		if !strings.Contains(output, "# Transfer history") {
			t.Error("Markdown missing title")
		}
		if !strings.Contains(output, "**Transfers**: 2") {
			t.Error("Markdown missing count")
		}
		if !strings.Contains(output, `Harbour \| Dawn`) {
			t.Errorf("expected pipe to be escaped, got: %s", output)
		}
		if !strings.Contains(output, "| root |") {
			t.Error("expected empty album to render as root")
		}
		if !strings.Contains(output, "download: All download methods failed") {
			t.Error("Markdown missing failure reason")
		}
	})

	t.Run("PhotosToCSV", func(t *testing.T) {
		data, err := PhotosToCSV(samplePhotos())
		if err != nil {
			t.Fatalf("PhotosToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "UID,Title,TakenAt,Type,File,Size\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "p1,Harbour,2024-06-15T08:30:00Z,image,IMG_1.jpg,2048") {
			t.Errorf("CSV missing p1 row, got: %s", output)
		}
		if !strings.Contains(output, "p2,,,,,") {
			t.Errorf("CSV missing empty p2 row, got: %s", output)
		}
	})

	t.Run("PhotosToMarkdown", func(t *testing.T) {
		output := string(PhotosToMarkdown("2024-06-15", samplePhotos()))

		if !strings.Contains(output, "# Photos taken on 2024-06-15") {
			t.Error("Markdown missing title")
		}
		if !strings.Contains(output, "1. Harbour `p1` (IMG_1.jpg)") {
			t.Errorf("Markdown missing first photo, got: %s", output)
		}
		if !strings.Contains(output, "2. Untitled `p2`\n") {
			t.Errorf("Markdown missing untitled photo, got: %s", output)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.csv")

		if err := WriteExport(path, []byte("a,b\n")); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if string(data) != "a,b\n" {
			t.Errorf("unexpected content: %q", data)
		}
	})

	t.Run("WithEmptyPath", func(t *testing.T) {
		if err := WriteExport("", nil); err == nil {
			t.Error("expected error for empty path")
		}
	})
}
