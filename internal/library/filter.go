package library

import (
	"strings"

	"github.com/llumina/backend/internal/models"
)

// StatusFilterAll matches records regardless of watch status. Any other value
// narrows the view to watched records only.
const StatusFilterAll = "all"

// Filter narrows the library view. The zero value is the identity filter.
type Filter struct {
	Query        string
	Status       string
	CollectionID string
}

// IsIdentity reports whether the filter matches every record unchanged.
func (f Filter) IsIdentity() bool {
	return strings.TrimSpace(f.Query) == "" &&
		(f.Status == "" || f.Status == StatusFilterAll) &&
		f.CollectionID == ""
}

func (f Filter) matches(rec models.VideoRecord) bool {
	if q := strings.TrimSpace(f.Query); q != "" {
		q = strings.ToLower(q)
		title := strings.ToLower(rec.Metadata.Title)
		channel := strings.ToLower(rec.Metadata.ChannelName)
		if !strings.Contains(title, q) && !strings.Contains(channel, q) {
			return false
		}
	}
	if f.Status != "" && f.Status != StatusFilterAll && rec.Status != models.StatusWatched {
		return false
	}
	if f.CollectionID != "" && rec.CollectionID != f.CollectionID {
		return false
	}
	return true
}
