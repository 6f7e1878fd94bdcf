package videos

import (
	"regexp"
	"strings"
)

// idPattern matches the identifier token across the known YouTube URL shapes:
// watch-page query parameter, youtu.be short links, embed, shorts, /vi/ and /v/
// path segments, and the mobile/music host variants. The capture stops at the
// first '#', '&' or '?'.
var idPattern = regexp.MustCompile(`(?:v=|/embed/|/watch\?v=|/vi/|youtu\.be/|/shorts/|/v/|/e/)([^#&?]*)`)

const thumbnailTemplate = "https://img.youtube.com/vi/%s/maxresdefault.jpg"

// ResolveID extracts the canonical YouTube identifier from a raw input URL.
// It is a pure string operation: no network access, deterministic output.
// Inputs that match none of the known shapes, or that yield an empty token,
// fail with ErrInvalidSource.
func ResolveID(url string) (string, error) {
	m := idPattern.FindStringSubmatch(url)
	if m == nil {
		return "", ErrInvalidSource
	}
	id := strings.TrimSpace(m[1])
	if id == "" {
		return "", ErrInvalidSource
	}
	return id, nil
}
