package identity

import "strings"

// Slugify derives the canonical slug for a community name: lowercase,
// any run of characters outside [a-z0-9] collapses to a single hyphen,
// leading and trailing hyphens trimmed. The function is idempotent.
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingHyphen = true
			continue
		}
		if pendingHyphen && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingHyphen = false
		b.WriteRune(r)
	}

	return b.String()
}

// DedupIndex tracks the slugs and names already claimed by stored
// communities plus any claimed earlier in the same run. It replaces the
// implicit slices the pipelines used to mutate while looping.
type DedupIndex struct {
	slugs map[string]struct{}
	names map[string]struct{}
}

// NewDedupIndex seeds an index from the repository's known slugs and names.
func NewDedupIndex(knownSlugs, knownNames []string) *DedupIndex {
	idx := &DedupIndex{
		slugs: make(map[string]struct{}, len(knownSlugs)),
		names: make(map[string]struct{}, len(knownNames)),
	}
	for _, s := range knownSlugs {
		idx.slugs[s] = struct{}{}
	}
	for _, n := range knownNames {
		idx.names[normalizeName(n)] = struct{}{}
	}
	return idx
}

// IsDuplicate reports whether name collides with a known community,
// either by slug or by exact normalized name.
func (d *DedupIndex) IsDuplicate(name string) bool {
	if _, ok := d.slugs[Slugify(name)]; ok {
		return true
	}
	_, ok := d.names[normalizeName(name)]
	return ok
}

// Add claims a name and its slug for the remainder of the run, so later
// candidates in the same batch collide against it.
func (d *DedupIndex) Add(name string) {
	d.slugs[Slugify(name)] = struct{}{}
	d.names[normalizeName(name)] = struct{}{}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
