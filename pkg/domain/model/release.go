package model

// ReleaseAsset is one downloadable artifact attached to a release.
type ReleaseAsset struct {
	Name        string // File name of the asset
	DownloadURL string // Browser-facing download URL
	APIURL      string // URL used for authenticated retrieval
}

// Release is the normalized latest-release view produced by a watcher.
// Tag is the sole identity used for change comparison; no version ordering
// is applied, equality is exact string equality.
type Release struct {
	Tag       string
	Assets    []ReleaseAsset
	SourceURL string // Canonical page of the watched repository, may be empty
}
