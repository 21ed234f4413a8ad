package handlers

// AssetURL joins staticBaseURL with a canonical static-tree path,
// appending `?v=<snapshotBuildID>` when immutable is false and the build
// ID is non-empty. Content-hashed paths (pdf/md/images) are immutable and
// never cache-busted; paper_id keyed paths (summary/manifest) are
// build-dependent and carry the build ID whenever one is known.
func AssetURL(staticBaseURL, path, snapshotBuildID string, immutable bool) string {
	if path == "" {
		return ""
	}
	url := staticBaseURL + path
	if immutable || snapshotBuildID == "" {
		return url
	}
	return url + "?v=" + snapshotBuildID
}
