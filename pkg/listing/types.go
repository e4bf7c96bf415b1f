package listing

import (
	"github.com/JoshTKx/actress-webscraper/pkg/backstage"
)

// Profile is a single talent profile discovered on a listing page.
// Uniqueness is by URL; Name is a display name taken from the link text
// or derived from the URL slug.
type Profile struct {
	URL  string
	Name string
}

// Slug returns the URL path segment identifying this profile, used as
// the per-profile output directory name
func (p Profile) Slug() string {
	return backstage.SlugFromProfileURL(p.URL)
}
