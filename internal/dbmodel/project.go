package dbmodel

import "encoding/base64"

// Project builds the JSON-ready map described by the current (version 1)
// projection: entry string fields nested under "StringFields" rather than
// flattened to the entry's top level.
func (db *Database) Project(filter Filter) map[string]any {
	out := map[string]any{
		"name": db.Name,
	}
	if filter.AcceptIcons {
		icons := make([]any, 0, len(db.CustomIcons))
		for _, icon := range db.CustomIcons {
			icons = append(icons, map[string]any{
				"uuid": icon.UUID,
				"data": base64.StdEncoding.EncodeToString(icon.Data),
			})
		}
		out["icons"] = icons
	}
	if db.Root != nil && filter.AcceptGroup(db.Root) {
		out["root"] = projectGroup(db.Root, filter)
	}
	return out
}

func projectGroup(g *Group, filter Filter) map[string]any {
	entries := make([]any, 0, len(g.Entries))
	for _, e := range g.Entries {
		if !filter.AcceptEntry(e) {
			continue
		}
		entries = append(entries, projectEntry(e, filter))
	}
	groups := make([]any, 0, len(g.Groups))
	for _, child := range g.Groups {
		if !filter.AcceptGroup(child) {
			continue
		}
		groups = append(groups, projectGroup(child, filter))
	}
	return map[string]any{
		"uuid":           g.UUID,
		"name":           g.Name,
		"iconid":         g.IconID,
		"customiconuuid": g.CustomIconUUID,
		"groups":         groups,
		"entries":        entries,
	}
}

func projectEntry(e *Entry, filter Filter) map[string]any {
	fields := map[string]any{}
	for key, val := range e.Strings {
		if filter.AcceptStringKey(key) {
			fields[key] = val.Text
		}
	}
	out := map[string]any{
		"uuid":           e.UUID,
		"iconid":         e.IconID,
		"customiconuuid": e.CustomIconUUID,
		"StringFields":   fields,
	}
	if filter.AcceptTags {
		out["tags"] = e.Tags
	}
	if filter.AcceptPasswords {
		out["password"] = e.Password
	}
	if filter.AcceptHistory && len(e.History) > 0 {
		hist := make([]any, 0, len(e.History))
		for _, h := range e.History {
			hist = append(hist, projectEntry(h, filter))
		}
		out["history"] = hist
	}
	return out
}
