package dbmodel

import (
	"encoding/base64"

	"github.com/kpvault/kpvault/internal/kperr"
)

// LoadProjection mirrors Project, reconstructing a Database from a decoded
// JSON projection. version selects the shape: 0 is the legacy form with
// Title/UserName/URL flattened onto the entry itself; 1 (current) nests
// every string field under "StringFields". Producers must only emit
// version 1; this loader accepts both.
func LoadProjection(m map[string]any, version int) (*Database, error) {
	db := &Database{Name: str(m["name"])}

	if iconsRaw, ok := m["icons"].([]any); ok {
		for _, ir := range iconsRaw {
			im, ok := ir.(map[string]any)
			if !ok {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(str(im["data"]))
			if err != nil {
				return nil, kperr.Wrap(kperr.ErrParseFailure, "dbmodel.LoadProjection", err)
			}
			db.CustomIcons = append(db.CustomIcons, CustomIcon{UUID: str(im["uuid"]), Data: data})
		}
	}

	if rootRaw, ok := m["root"]; ok {
		rootMap, ok := rootRaw.(map[string]any)
		if !ok {
			return nil, kperr.Wrap(kperr.ErrParseFailure, "dbmodel.LoadProjection", nil)
		}
		root, err := loadGroup(rootMap, version)
		if err != nil {
			return nil, err
		}
		db.Root = root
	}

	if db.Root == nil && db.Name == "" {
		return nil, kperr.Wrap(kperr.ErrEmptyDatabase, "dbmodel.LoadProjection", nil)
	}
	return db, nil
}

func loadGroup(m map[string]any, version int) (*Group, error) {
	g := &Group{
		UUID:           str(m["uuid"]),
		Name:           str(m["name"]),
		IconID:         str(m["iconid"]),
		CustomIconUUID: str(m["customiconuuid"]),
	}
	if entriesRaw, ok := m["entries"].([]any); ok {
		for _, er := range entriesRaw {
			em, ok := er.(map[string]any)
			if !ok {
				continue
			}
			e, err := loadEntry(em, version)
			if err != nil {
				return nil, err
			}
			g.Entries = append(g.Entries, e)
		}
	}
	if groupsRaw, ok := m["groups"].([]any); ok {
		for _, gr := range groupsRaw {
			gm, ok := gr.(map[string]any)
			if !ok {
				continue
			}
			child, err := loadGroup(gm, version)
			if err != nil {
				return nil, err
			}
			g.Groups = append(g.Groups, child)
		}
	}
	return g, nil
}

func loadEntry(m map[string]any, version int) (*Entry, error) {
	e := &Entry{
		UUID:           str(m["uuid"]),
		IconID:         str(m["iconid"]),
		CustomIconUUID: str(m["customiconuuid"]),
		Tags:           str(m["tags"]),
		Password:       str(m["password"]),
		Strings:        map[string]StringValue{},
	}
	if version == 0 {
		for _, key := range []string{"Title", "UserName", "URL"} {
			if v, ok := m[key]; ok {
				e.Strings[key] = StringValue{Text: str(v)}
			}
		}
	} else if fields, ok := m["StringFields"].(map[string]any); ok {
		for k, v := range fields {
			e.Strings[k] = StringValue{Text: str(v)}
		}
	}
	if histRaw, ok := m["history"].([]any); ok {
		for _, hr := range histRaw {
			hm, ok := hr.(map[string]any)
			if !ok {
				continue
			}
			h, err := loadEntry(hm, version)
			if err != nil {
				return nil, err
			}
			e.History = append(e.History, h)
		}
	}
	return e, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
