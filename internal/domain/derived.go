package domain

import "time"

// Sharing is the pair of topic fields that must always be written together:
// the share grants and the allowed uids derived from them. The only way to
// build one is NewSharing, so a store can never persist one without the other.
type Sharing struct {
	grants  []ShareGrant
	allowed []string
}

// NewSharing derives allowed uids as {owner} ∪ {grant uids}. The owner comes
// first, then grant order, without duplicates.
func NewSharing(ownerUID string, grants []ShareGrant) Sharing {
	copied := make([]ShareGrant, len(grants))
	copy(copied, grants)

	seen := map[string]struct{}{ownerUID: {}}
	allowed := []string{ownerUID}
	for _, g := range copied {
		if g.UID == "" {
			continue
		}
		if _, ok := seen[g.UID]; ok {
			continue
		}
		seen[g.UID] = struct{}{}
		allowed = append(allowed, g.UID)
	}
	return Sharing{grants: copied, allowed: allowed}
}

func (s Sharing) Grants() []ShareGrant {
	out := make([]ShareGrant, len(s.grants))
	copy(out, s.grants)
	return out
}

func (s Sharing) AllowedUIDs() []string {
	out := make([]string, len(s.allowed))
	copy(out, s.allowed)
	return out
}

// Apply copies the sharing fields onto t.
func (s Sharing) Apply(t *Topic) {
	t.SharedWith = s.Grants()
	t.AllowedUIDs = s.AllowedUIDs()
}

// RowWrite carries row values together with their sort key.
type RowWrite struct {
	values map[string]string
	by     string
	at     time.Time
}

// NewRowWrite copies values and pins the sort key to values["date"].
func NewRowWrite(values map[string]string, by string, at time.Time) RowWrite {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return RowWrite{values: copied, by: by, at: at}
}

func (w RowWrite) Values() map[string]string {
	out := make(map[string]string, len(w.values))
	for k, v := range w.values {
		out[k] = v
	}
	return out
}

func (w RowWrite) SortDate() string { return w.values["date"] }
func (w RowWrite) By() string       { return w.by }
func (w RowWrite) At() time.Time    { return w.at }
