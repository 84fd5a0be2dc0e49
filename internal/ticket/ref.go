package ticket

import "github.com/iliyamo/ticket-lifecycle/internal/model"

// Ref identifies an event, user, status or type either by a bare id or by an
// already resolved reference.  Stores only ever see the normalized
// model.Reference form.
type Ref struct {
	id  string
	ref *model.Reference
}

// ID builds a Ref from a bare identifier.
func ID(id string) Ref { return Ref{id: id} }

// RefTo builds a Ref from a reference the caller already holds.
func RefTo(r model.Reference) Ref { return Ref{ref: &r} }

// Reference normalizes r into the minimal reference shape.
func (r Ref) Reference() model.Reference {
	if r.ref != nil {
		return *r.ref
	}
	return model.Reference{ID: r.id}
}

// String returns the identifier r resolves to.
func (r Ref) String() string { return r.Reference().ID }
