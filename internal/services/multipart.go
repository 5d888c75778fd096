package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path"
	"strings"
)

// uploadForm is the single-chunk Lychee photo upload.
type uploadForm struct {
	data        []byte
	fileName    string
	contentType string
	albumID     string
}

func newUploadForm(data []byte, fileName, albumID string) uploadForm {
	return uploadForm{
		data:        data,
		fileName:    fileName,
		contentType: ContentTypeFor(fileName),
		albumID:     albumID,
	}
}

// fields returns the non-file form fields in wire order.
func (f uploadForm) fields() [][2]string {
	return [][2]string{
		{"file_name", f.fileName},
		{"uuid_name", ""},
		{"extension", ""},
		{"chunk_number", "1"},
		{"total_chunks", "1"},
		{"album_id", f.albumID},
	}
}

// encodedBody is a ready-to-send multipart request body.
type encodedBody struct {
	body        io.Reader
	contentType string
	length      int64
}

// uploadEncoder renders a form into a request body.
type uploadEncoder struct {
	name   string
	encode func(form uploadForm) (*encodedBody, error)
}

var (
	bufferedUpload  = uploadEncoder{name: "buffered", encode: encodeBuffered}
	streamingUpload = uploadEncoder{name: "streaming", encode: encodeStreaming}
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// writeForm writes the fields then the file part. content may be nil to size the envelope only.
func writeForm(w *multipart.Writer, form uploadForm, content []byte) error {
	for _, kv := range form.fields() {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to write field %s: %w", kv[0], err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(form.fileName)))
	h.Set("Content-Type", form.contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}

	if content != nil {
		if _, err := part.Write(content); err != nil {
			return fmt.Errorf("failed to write file part: %w", err)
		}
	}
	return nil
}

// encodeBuffered builds the whole body in memory.
func encodeBuffered(form uploadForm) (*encodedBody, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := writeForm(w, form, form.data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	return &encodedBody{body: &buf, contentType: w.FormDataContentType(), length: int64(buf.Len())}, nil
}

// encodeStreaming pumps the body through a pipe. Content-Length is computed up front
// from an envelope rendered with the same boundary plus the file size.
func encodeStreaming(form uploadForm) (*encodedBody, error) {
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)

	var envelope countingWriter
	dummy := multipart.NewWriter(&envelope)
	if err := dummy.SetBoundary(w.Boundary()); err != nil {
		return nil, err
	}
	if err := writeForm(dummy, form, nil); err != nil {
		return nil, err
	}
	if err := dummy.Close(); err != nil {
		return nil, err
	}

	go func() {
		err := writeForm(w, form, form.data)
		if err == nil {
			err = w.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	return &encodedBody{
		body:        pr,
		contentType: w.FormDataContentType(),
		length:      envelope.n + int64(len(form.data)),
	}, nil
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// contentTypes maps lowercase file extensions to upload MIME types.
var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
	"heic": "image/heic",
	"heif": "image/heif",
	"raw":  "image/raw",
	"dng":  "image/dng",
	"cr2":  "image/cr2",
	"nef":  "image/nef",
	"arw":  "image/arw",
	"orf":  "image/orf",
	"rw2":  "image/rw2",
	"pef":  "image/pef",
	"sr2":  "image/sr2",
	"raf":  "image/raf",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"avi":  "video/avi",
	"mkv":  "video/mkv",
}

// ContentTypeFor returns the upload MIME type for fileName's extension, or application/octet-stream.
func ContentTypeFor(fileName string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(fileName)), ".")
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
