// Package dbmodel holds the in-memory Database/Group/Entry model parsed
// from a kdbx payload's XML, plus the JSON-ready projection used by the
// cache envelope.
package dbmodel

// StringValue is a String field's decoded text plus whether it arrived as
// a Protected node (kept so a filter can make password-like decisions on
// user-defined fields too, even though only the literal "Password" key is
// routed to Entry.Password).
type StringValue struct {
	Text      string
	Protected bool
}

// Entry is a single password entry.
type Entry struct {
	UUID           string // base64, identity-preserving
	IconID         string
	CustomIconUUID string
	Tags           string
	Password       string
	Strings        map[string]StringValue
	History        []*Entry
}

// Group is a node in the group tree; children are owned by the parent, no
// back-pointer is kept or needed by any read path.
type Group struct {
	UUID           string
	Name           string
	IconID         string
	CustomIconUUID string
	Groups         []*Group
	Entries        []*Entry
}

// CustomIcon is a database-level custom icon.
type CustomIcon struct {
	UUID string
	Data []byte // decoded PNG bytes
}

// Database is the full parsed tree.
type Database struct {
	HeaderHash  string // base64 of the inner XML's own Meta/HeaderHash
	Name        string
	CustomIcons []CustomIcon
	Root        *Group
}

// GetPassword performs a depth-first search for the entry with the given
// base64 UUID and returns its decoded password.
func (db *Database) GetPassword(uuid string) (string, bool) {
	if db == nil || db.Root == nil {
		return "", false
	}
	return findPassword(db.Root, uuid)
}

func findPassword(g *Group, uuid string) (string, bool) {
	for _, e := range g.Entries {
		if e.UUID == uuid {
			return e.Password, true
		}
	}
	for _, child := range g.Groups {
		if pw, ok := findPassword(child, uuid); ok {
			return pw, true
		}
	}
	return "", false
}

// Filter governs what Project includes in the JSON-ready projection. The
// sealed set of knobs mirrors the per-group/per-entry/per-history/
// per-icon/per-tag/per-password/per-string-key decisions a projection can
// make; there is no dynamic dispatch beyond this fixed predicate record.
type Filter struct {
	AcceptGroup     func(*Group) bool
	AcceptEntry     func(*Entry) bool
	AcceptHistory   bool
	AcceptIcons     bool
	AcceptTags      bool
	AcceptPasswords bool
	AcceptStringKey func(key string) bool
}

// DefaultFilter accepts everything except passwords.
func DefaultFilter() Filter {
	return Filter{
		AcceptGroup:     func(*Group) bool { return true },
		AcceptEntry:     func(*Entry) bool { return true },
		AcceptHistory:   true,
		AcceptIcons:     true,
		AcceptTags:      true,
		AcceptPasswords: false,
		AcceptStringKey: func(string) bool { return true },
	}
}

// ProjectionVersion is the current projection shape; producers must only
// emit this version. Version 0 is accepted by LoadProjection for backward
// compatibility with databases cached before StringFields was introduced.
const ProjectionVersion = 1
