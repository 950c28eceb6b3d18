package interfaces

import "context"

// AssetDownloader retrieves a release asset to a local path.
type AssetDownloader interface {
	// Download fetches url into dest. A non-empty token is sent as a
	// bearer-style Authorization header.
	Download(ctx context.Context, url, dest, token string) error
}
