package transfer

type PostCreation struct {
	Text   string   `json:"text"`
	Photos []string `json:"photos"`
	Videos []string `json:"videos"`
}

type PostUpdate struct {
	Text   *string  `json:"text"`
	Photos []string `json:"photos"`
	Videos []string `json:"videos"`
}

// MediaManifest is the media.json side-file layout. The field order of
// references mirrors the order they were attached to the post.
type MediaManifest struct {
	Photos []string `json:"photos"`
	Videos []string `json:"videos"`
}

// PlatformResult is one platform's outcome of a publish-all request.
type PlatformResult struct {
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	Skipped  bool   `json:"skipped"`
	Error    string `json:"error,omitempty"`
}
