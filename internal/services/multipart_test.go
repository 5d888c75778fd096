package services

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentTypeFor(t *testing.T) {
	tt := []struct {
		name string
		want string
	}{
		{"photo.jpg", "image/jpeg"},
		{"photo.JPEG", "image/jpeg"},
		{"scan.png", "image/png"},
		{"raw.CR2", "image/cr2"},
		{"clip.mov", "video/quicktime"},
		{"clip.mp4", "video/mp4"},
		{"archive.tar.gz", "application/octet-stream"},
		{"noext", "application/octet-stream"},
		{"", "application/octet-stream"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ContentTypeFor(tc.name))
		})
	}
}

func readForm(t *testing.T, body *encodedBody) (map[string]string, []byte, string) {
	t.Helper()

	raw, err := io.ReadAll(body.body)
	require.NoError(t, err)
	assert.EqualValues(t, len(raw), body.length, "declared length must match bytes produced")

	_, params, err := mime.ParseMediaType(body.contentType)
	require.NoError(t, err)

	r := multipart.NewReader(bytes.NewReader(raw), params["boundary"])
	fields := map[string]string{}
	var file []byte
	var fileType string

	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		data, err := io.ReadAll(part)
		require.NoError(t, err)

		if part.FormName() == "file" {
			file = data
			fileType = part.Header.Get("Content-Type")
			assert.Equal(t, "IMG 1.heic", part.FileName())
			continue
		}
		fields[part.FormName()] = string(data)
	}
	return fields, file, fileType
}

func TestUploadEncoders(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 64*1024)
	form := newUploadForm(data, "IMG 1.heic", "album-7")

	for _, enc := range []uploadEncoder{bufferedUpload, streamingUpload} {
		t.Run(enc.name, func(t *testing.T) {
			body, err := enc.encode(form)
			require.NoError(t, err)

			fields, file, fileType := readForm(t, body)

			assert.Equal(t, map[string]string{
				"file_name":    "IMG 1.heic",
				"uuid_name":    "",
				"extension":    "",
				"chunk_number": "1",
				"total_chunks": "1",
				"album_id":     "album-7",
			}, fields)
			assert.Equal(t, data, file)
			assert.Equal(t, "image/heic", fileType)
		})
	}

	t.Run("root album sends empty album_id", func(t *testing.T) {
		body, err := encodeBuffered(newUploadForm([]byte("x"), "IMG 1.heic", ""))
		require.NoError(t, err)

		fields, _, _ := readForm(t, body)
		v, ok := fields["album_id"]
		assert.True(t, ok)
		assert.Empty(t, v)
	})
}
