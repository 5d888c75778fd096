// Package services implements the HTTP clients for the photo source ([PhotoPrismService]) and
// destination ([LycheeService]).
//
// # Service Interfaces
//
// Both sides share the session lifecycle in [Service]. [SourceService] adds search, details,
// thumbnails and downloads; [DestinationService] adds albums and uploads. The transfer engine and
// thumbnail prefetcher only depend on these interfaces.
//
// # PhotoPrism
//
// Connect posts credentials to /api/v1/session and extracts three tokens from the response:
//   - access token: access_token, then session_id, then id
//   - preview token: config.previewToken
//   - download token: download_token, downloadToken, config.downloadToken, then any response
//     header whose name contains both "download" and "token"
//
// The access token is attached as a bearer token by an [oauth2.Transport]. Every response passes
// through a rotation transport that replaces the download token when the server sends a new one.
//
// # Lychee
//
// Lychee uses Laravel sessions. Connect loads the home page to obtain the XSRF-TOKEN cookie, then
// posts to /api/v2/Auth::login with the decoded token in X-XSRF-TOKEN. Uploads are single-chunk
// multipart forms sent buffered first, and streamed once if the server rejects the buffered body.
//
// # Album Trees
//
// [FlattenAlbums] accepts the three response shapes of /api/v2/Albums (bare list, wrapped list and
// categorized smart/tag/regular albums) and returns a pre-order list of [models.AlbumNode] with depths.
//
// # Error Handling
//
// Failures are returned as [shared.StageError] values carrying the stage and a category:
//   - [shared.ErrConfig] : incomplete credentials, no request sent
//   - [shared.ErrAuth] : login rejected, CSRF bootstrap failed, or 401/403 responses
//   - [shared.ErrAPIRequest] : search, album or thumbnail request failed
//   - [shared.ErrTransfer] : details, download or upload failed
//   - [shared.ErrNotConnected] : Connect not called or session closed
package services
