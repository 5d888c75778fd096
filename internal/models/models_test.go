package models

import "testing"

func TestCredentials(t *testing.T) {
	tt := []struct {
		name  string
		creds Credentials
		want  bool
	}{
		{name: "complete", creds: Credentials{"http://pp", "u", "p"}, want: true},
		{name: "missing url", creds: Credentials{"", "u", "p"}, want: false},
		{name: "missing user", creds: Credentials{"http://pp", "", "p"}, want: false},
		{name: "missing password", creds: Credentials{"http://pp", "u", ""}, want: false},
		{name: "empty", creds: Credentials{}, want: false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.creds.IsComplete(); got != tc.want {
				t.Errorf("IsComplete() = %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("Endpoint trims trailing slash", func(t *testing.T) {
		c := Credentials{BaseURL: "http://pp:2342/"}
		if got := c.Endpoint("/api/v1/session"); got != "http://pp:2342/api/v1/session" {
			t.Errorf("unexpected endpoint %s", got)
		}
	})
}

func TestPhoto(t *testing.T) {
	t.Run("PrimaryFile prefers primary flag", func(t *testing.T) {
		p := Photo{Files: []File{{Hash: "a"}, {Hash: "b", Primary: true}}}
		f, ok := p.PrimaryFile()
		if !ok || f.Hash != "b" {
			t.Errorf("expected primary file b, got %+v (ok=%v)", f, ok)
		}
	})

	t.Run("PrimaryFile falls back to first", func(t *testing.T) {
		p := Photo{Files: []File{{Hash: "a"}, {Hash: "b"}}}
		f, ok := p.PrimaryFile()
		if !ok || f.Hash != "a" {
			t.Errorf("expected first file a, got %+v", f)
		}
	})

	t.Run("PrimaryFile with no files", func(t *testing.T) {
		if _, ok := (Photo{}).PrimaryFile(); ok {
			t.Error("expected no primary file")
		}
	})

	t.Run("ThumbnailHash skips missing first file", func(t *testing.T) {
		p := Photo{Files: []File{{Hash: "a", Missing: true}, {Hash: "b"}}}
		if _, ok := p.ThumbnailHash(); ok {
			t.Error("missing first file should yield no thumbnail hash")
		}

		p = Photo{Files: []File{{Hash: "c"}}}
		if h, ok := p.ThumbnailHash(); !ok || h != "c" {
			t.Errorf("expected hash c, got %q", h)
		}
	})

	t.Run("BaseName", func(t *testing.T) {
		if got := (File{Name: "2023/05/IMG_0001.JPG"}).BaseName(); got != "IMG_0001.JPG" {
			t.Errorf("unexpected base name %s", got)
		}
		if got := (File{}).BaseName(); got != DefaultFileName {
			t.Errorf("expected default file name, got %s", got)
		}
	})

	t.Run("DisplayTitle", func(t *testing.T) {
		if got := (Photo{}).DisplayTitle(); got != "Untitled" {
			t.Errorf("expected Untitled, got %s", got)
		}
	})
}

func TestAlbumNodeLabel(t *testing.T) {
	n := AlbumNode{ID: "7", Title: "Summer", Depth: 2}
	if got := n.Label(); got != "    Summer (ID: 7)" {
		t.Errorf("unexpected label %q", got)
	}
}

func TestTransferRecord(t *testing.T) {
	t.Run("lifecycle", func(t *testing.T) {
		rec := NewTransferRecord(Photo{UID: "pq1", Title: "Beach"}, "12")
		if rec.Status() != TransferRunning {
			t.Fatalf("expected running, got %s", rec.Status())
		}
		if err := rec.Validate(); err != nil {
			t.Fatalf("running record should validate: %v", err)
		}

		rec.MarkSucceeded(2048)
		if rec.Status() != TransferSucceeded || rec.Bytes() != 2048 || rec.CompletedAt() == nil {
			t.Errorf("unexpected record after success: %+v", rec)
		}
	})

	t.Run("failure keeps stage", func(t *testing.T) {
		rec := NewTransferRecord(Photo{UID: "pq1"}, "")
		rec.MarkFailed("upload", "quota exceeded")
		if rec.Stage() != "upload" || rec.ErrorMessage() != "quota exceeded" {
			t.Errorf("unexpected failure fields: %s / %s", rec.Stage(), rec.ErrorMessage())
		}
	})

	t.Run("validation", func(t *testing.T) {
		if err := NewTransferRecord(Photo{}, "").Validate(); err == nil {
			t.Error("expected missing uid to fail validation")
		}

		rec := NewTransferRecord(Photo{UID: "x"}, "")
		rec.Restore(TransferSucceeded, 1, "", "", rec.StartedAt(), rec.CreatedAt(), nil)
		if err := rec.Validate(); err == nil {
			t.Error("expected completed record without completed_at to fail")
		}

		rec.Restore("bogus", 0, "", "", rec.StartedAt(), rec.CreatedAt(), nil)
		if err := rec.Validate(); err == nil {
			t.Error("expected invalid status to fail")
		}
	})
}
