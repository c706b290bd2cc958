package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"satbridge/internal/constants"
)

// Resolver locates attachment files under the media root. File creation is
// eventually consistent with the message row, so Resolve is re-invoked every
// poll tick for unresolved attachments; it performs a bounded number of stat
// calls and keeps no cache.
type Resolver struct {
	rootDir    string
	subdirs    []string
	extensions []string
}

func NewResolver(rootDir string, extensions []string) *Resolver {
	if len(extensions) == 0 {
		extensions = constants.DefaultMediaExtensions
	}
	return &Resolver{
		rootDir:    rootDir,
		subdirs:    constants.MediaSubdirs,
		extensions: extensions,
	}
}

// Resolve returns the path of the first existing file for the attachment, or
// "" when no file has materialized yet. The file id, when known, is more
// specific than the attachment id and is tried first; directory and
// extension order is fixed so resolution is deterministic.
func (r *Resolver) Resolve(fileID, attachmentID string) string {
	var candidates []string
	if fileID != "" {
		candidates = append(candidates, fileID)
	}
	if attachmentID != "" {
		candidates = append(candidates, attachmentID)
	}

	for _, id := range candidates {
		for _, sub := range r.subdirs {
			dir := filepath.Join(r.rootDir, sub)
			for _, ext := range r.extensions {
				p := filepath.Join(dir, fmt.Sprintf("%s.%s", id, ext))
				if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
					return p
				}
			}
		}
	}
	return ""
}

// MimeType maps a resolved path to its MIME type by extension.
func MimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := constants.MimeTypes[ext]; ok {
		return mt
	}
	return constants.DefaultMimeType
}
