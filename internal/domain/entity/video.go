package entity

import (
	"path/filepath"
	"strings"
)

// allowedExtensions is the fixed container allow-list. Validation is by
// extension only; content is never sniffed.
var allowedExtensions = map[string]struct{}{
	".mp4":  {},
	".avi":  {},
	".mkv":  {},
	".mov":  {},
	".flv":  {},
	".webm": {},
}

// IsSupportedVideo reports whether the named file carries an accepted
// container extension.
func IsSupportedVideo(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := allowedExtensions[ext]
	return ok
}
