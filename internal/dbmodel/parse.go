package dbmodel

import (
	"encoding/base64"
	"strings"

	"github.com/kpvault/kpvault/internal/kperr"
	"github.com/kpvault/kpvault/internal/keystream"
	"github.com/kpvault/kpvault/internal/xmlreader"
)

// Parse walks the decrypted kdbx payload's XML and builds a Database. ks is
// the per-field keystream (nil if the header's stream tag is NONE);
// protectedStrict mirrors the header's stream tag: pass true unless the
// stream tag is NONE, in which case a Protected node with no keystream
// configured falls back to raw cleartext bytes instead of failing.
func Parse(data []byte, ks *keystream.Cipher, protectedStrict bool) (*Database, error) {
	c := xmlreader.NewCursor(data, ks, protectedStrict)

	if !c.Read(0) || !c.IsElement("KeePassFile") {
		return nil, kperr.Wrap(kperr.ErrParseFailure, "dbmodel.Parse", nil)
	}
	fileDepth := c.Depth()

	db := &Database{}
	for c.Read(fileDepth) {
		switch {
		case c.IsElement("Meta"):
			if err := parseMeta(c, db); err != nil {
				return nil, err
			}
		case c.IsElement("Root"):
			root, err := parseRoot(c)
			if err != nil {
				return nil, err
			}
			db.Root = root
		}
	}

	if db.Root == nil && db.Name == "" {
		return nil, kperr.Wrap(kperr.ErrEmptyDatabase, "dbmodel.Parse", nil)
	}
	return db, nil
}

func parseMeta(c *xmlreader.Cursor, db *Database) error {
	depth := c.Depth()
	for c.Read(depth) {
		switch {
		case c.IsElement("HeaderHash"):
			v, err := c.ReadTextInside(false)
			if err != nil {
				return err
			}
			db.HeaderHash = v.Text
		case c.IsElement("DatabaseName"):
			v, err := c.ReadTextInside(false)
			if err != nil {
				return err
			}
			db.Name = v.Text
		case c.IsElement("CustomIcons"):
			icons, err := parseCustomIcons(c)
			if err != nil {
				return err
			}
			db.CustomIcons = icons
		}
	}
	return nil
}

func parseCustomIcons(c *xmlreader.Cursor) ([]CustomIcon, error) {
	depth := c.Depth()
	var icons []CustomIcon
	for c.Read(depth) {
		if !c.IsElement("Icon") {
			continue
		}
		iconDepth := c.Depth()
		var icon CustomIcon
		for c.Read(iconDepth) {
			switch {
			case c.IsElement("UUID"):
				v, err := c.ReadTextInside(false)
				if err != nil {
					return nil, err
				}
				icon.UUID = v.Text
			case c.IsElement("Data"):
				v, err := c.ReadTextInside(false)
				if err != nil {
					return nil, err
				}
				decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(v.Text))
				if err != nil {
					return nil, kperr.Wrap(kperr.ErrParseFailure, "dbmodel.parseCustomIcons", err)
				}
				icon.Data = decoded
			}
		}
		icons = append(icons, icon)
	}
	return icons, nil
}

func parseRoot(c *xmlreader.Cursor) (*Group, error) {
	depth := c.Depth()
	for c.Read(depth) {
		if c.IsElement("Group") {
			return parseGroup(c)
		}
	}
	return nil, kperr.Wrap(kperr.ErrParseFailure, "dbmodel.parseRoot", nil)
}

func parseGroup(c *xmlreader.Cursor) (*Group, error) {
	g := &Group{}
	depth := c.Depth()
	for c.Read(depth) {
		switch {
		case c.IsElement("UUID"):
			v, err := c.ReadTextInside(false)
			if err != nil {
				return nil, err
			}
			g.UUID = v.Text
		case c.IsElement("Name"):
			v, err := c.ReadTextInside(false)
			if err != nil {
				return nil, err
			}
			g.Name = v.Text
		case c.IsElement("IconID"):
			v, err := c.ReadTextInside(false)
			if err != nil {
				return nil, err
			}
			g.IconID = v.Text
		case c.IsElement("CustomIconUUID"):
			v, err := c.ReadTextInside(false)
			if err != nil {
				return nil, err
			}
			g.CustomIconUUID = v.Text
		case c.IsElement("Group"):
			child, err := parseGroup(c)
			if err != nil {
				return nil, err
			}
			g.Groups = append(g.Groups, child)
		case c.IsElement("Entry"):
			e, err := parseEntry(c)
			if err != nil {
				return nil, err
			}
			g.Entries = append(g.Entries, e)
		}
	}
	return g, nil
}

func parseEntry(c *xmlreader.Cursor) (*Entry, error) {
	e := &Entry{Strings: map[string]StringValue{}}
	depth := c.Depth()
	for c.Read(depth) {
		switch {
		case c.IsElement("UUID"):
			v, err := c.ReadTextInside(false)
			if err != nil {
				return nil, err
			}
			e.UUID = v.Text
		case c.IsElement("IconID"):
			v, err := c.ReadTextInside(false)
			if err != nil {
				return nil, err
			}
			e.IconID = v.Text
		case c.IsElement("CustomIconUUID"):
			v, err := c.ReadTextInside(false)
			if err != nil {
				return nil, err
			}
			e.CustomIconUUID = v.Text
		case c.IsElement("Tags"):
			v, err := c.ReadTextInside(false)
			if err != nil {
				return nil, err
			}
			e.Tags = v.Text
		case c.IsElement("String"):
			key, val, err := parseStringField(c)
			if err != nil {
				return nil, err
			}
			if strings.EqualFold(key, "Password") {
				e.Password = val.Text
			} else if key != "" {
				e.Strings[key] = val
			}
		case c.IsElement("History"):
			hist, err := parseHistory(c)
			if err != nil {
				return nil, err
			}
			e.History = hist
		}
	}
	return e, nil
}

func parseStringField(c *xmlreader.Cursor) (string, StringValue, error) {
	depth := c.Depth()
	var key string
	var val StringValue
	for c.Read(depth) {
		switch {
		case c.IsElement("Key"):
			v, err := c.ReadTextInside(false)
			if err != nil {
				return "", StringValue{}, err
			}
			key = v.Text
		case c.IsElement("Value"):
			v, err := c.ReadTextInside(true)
			if err != nil {
				return "", StringValue{}, err
			}
			val = StringValue{Text: v.Text, Protected: v.Protected}
		}
	}
	return key, val, nil
}

func parseHistory(c *xmlreader.Cursor) ([]*Entry, error) {
	depth := c.Depth()
	var out []*Entry
	for c.Read(depth) {
		if c.IsElement("Entry") {
			e, err := parseEntry(c)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
	}
	return out, nil
}
