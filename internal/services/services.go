// package services implements the HTTP clients for the photo source (PhotoPrism) and destination (Lychee)
package services

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/photosync/internal/models"
)

// Service is the session lifecycle shared by both sides of a transfer.
type Service interface {
	// Connect authenticates with the bound credentials and replaces any previous session.
	Connect(ctx context.Context) error

	// Close drops the session tokens.
	Close()

	// Connected reports whether a session is active.
	Connected() bool

	// Name returns the name of the service (e.g., "PhotoPrism", "Lychee")
	Name() string
}

// SourceService is the library photos are searched in and downloaded from.
type SourceService interface {
	Service

	// Search lists photos taken on date (YYYY-MM-DD), at most count.
	Search(ctx context.Context, date string, count int) ([]models.Photo, error)

	// PhotoDetails fetches the full record of a photo, including its files.
	PhotoDetails(ctx context.Context, uid string) (*models.Photo, error)

	// Thumbnail returns tile preview bytes, or nil when the photo has no usable preview.
	Thumbnail(ctx context.Context, photo models.Photo) ([]byte, error)

	// Download fetches the original file identified by hash using the given token.
	// The response is returned unvalidated.
	Download(ctx context.Context, hash, token string) (*APIResponse, error)

	// Tokens returns a copy of the current session tokens.
	Tokens() models.SourceTokens
}

// DestinationService is the gallery photos are uploaded to.
type DestinationService interface {
	Service

	// Albums returns the album hierarchy flattened depth-first.
	Albums(ctx context.Context) ([]models.AlbumNode, error)

	// Upload stores data as filename in albumID ("" means the root album).
	Upload(ctx context.Context, data []byte, filename, albumID string) error
}

// ClientOpts configures a service client.
type ClientOpts struct {
	Transport http.RoundTripper // Base transport (default: [http.DefaultTransport])
	Timeout   time.Duration     // Per-request timeout (default: none)
	Logger    *log.Logger
}

func (o ClientOpts) logger(service string) *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard).With("service", service)
	}
	return o.Logger.With("service", service)
}

var (
	_ SourceService      = (*PhotoPrismService)(nil)
	_ DestinationService = (*LycheeService)(nil)
)
