// Package xmlreader implements a small depth-aware pull-parser cursor over
// a KeePass XML payload, decoding "Protected" string values against a
// monotonic keystream as they are encountered in document order. It never
// builds a DOM; callers drive it with Read/ReadTextInside/IsElement the
// way a recursive-descent SAX consumer would.
package xmlreader

import (
	"encoding/base64"
	"encoding/xml"
	"io"
	"strings"

	"github.com/kpvault/kpvault/internal/kperr"
	"github.com/kpvault/kpvault/internal/keystream"
)

// Value is what ReadTextInside returns for an element's text content.
type Value struct {
	Text      string
	Protected bool
}

// Cursor walks an XML document one element at a time.
//
// Read advances to the next ELEMENT node at a depth strictly greater than
// the caller's parentDepth (GO_ON), returning false once the source is
// exhausted or the parent's closing tag is reached (STOP). After
// ReadTextInside consumes an empty element's immediate close, or buffers a
// token it over-read, the next Read sees that buffered token first
// (DO_NOT_READ) so no sibling is skipped.
type Cursor struct {
	dec     *xml.Decoder
	ks      *keystream.Cipher
	strict  bool // if true, a protected node with no keystream is a ParseFailure
	depth   int
	pending xml.Token
	havePending bool

	curName  string
	curAttrs []xml.Attr
}

// NewCursor wraps data. ks may be nil when the header's per-field stream
// tag is NONE; strict controls whether a protected node encountered
// without a keystream configured is an error (true) or falls back to the
// raw decoded bytes as cleartext (false, the conservative choice used only
// when the header's stream tag is itself NONE).
func NewCursor(data []byte, ks *keystream.Cipher, strict bool) *Cursor {
	return &Cursor{dec: xml.NewDecoder(strings.NewReader(string(data))), ks: ks, strict: strict}
}

func (c *Cursor) nextToken() (xml.Token, error) {
	if c.havePending {
		c.havePending = false
		return c.pending, nil
	}
	return c.dec.Token()
}

// Read advances the cursor to the next element deeper than parentDepth.
// It returns false when the source is exhausted or parentDepth's own
// closing tag is reached.
func (c *Cursor) Read(parentDepth int) bool {
	for {
		tok, err := c.nextToken()
		if err != nil {
			return false // STOP: source exhausted (io.EOF or malformed tail)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			c.depth++
			if c.depth > parentDepth {
				c.curName = t.Name.Local
				c.curAttrs = t.Attr
				return true
			}
		case xml.EndElement:
			c.depth--
			if c.depth <= parentDepth {
				return false // STOP: reached the parent's own close
			}
		default:
			// text, comments, processing instructions: skipped at cursor layer
		}
	}
}

// IsElement reports whether the cursor's current element name matches
// name, case-insensitively.
func (c *Cursor) IsElement(name string) bool {
	return strings.EqualFold(c.curName, name)
}

// Depth returns the current element's depth, the value callers pass back
// into Read to iterate that element's own children.
func (c *Cursor) Depth() int {
	return c.depth
}

// Attr returns the named attribute's value and whether it was present,
// case-insensitively.
func (c *Cursor) Attr(name string) (string, bool) {
	for _, a := range c.curAttrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value, true
		}
	}
	return "", false
}

// ReadTextInside reads the current element's first child if it is a TEXT
// node. If the element carries Protected="True", the text is base64
// decoded and XORed against exactly that many bytes of the active
// keystream (an empty protected value consumes no keystream bytes).
func (c *Cursor) ReadTextInside(protectedOK bool) (*Value, error) {
	protected, _ := c.Attr("Protected")
	isProtected := strings.EqualFold(protected, "True")

	tok, err := c.nextToken()
	if err != nil {
		if err == io.EOF {
			return &Value{Protected: isProtected}, nil
		}
		return nil, kperr.Wrap(kperr.ErrParseFailure, "xmlreader.ReadTextInside", err)
	}

	switch t := tok.(type) {
	case xml.EndElement:
		// Empty element: nothing to read. The close belongs to the
		// current element, so depth bookkeeping is already settled.
		c.depth--
		return &Value{Protected: isProtected}, nil

	case xml.CharData:
		text := string(t)
		if err := c.consumeClosingTag(); err != nil {
			return nil, err
		}
		if !isProtected {
			return &Value{Text: text}, nil
		}
		if !protectedOK {
			return nil, kperr.Wrap(kperr.ErrParseFailure, "xmlreader.ReadTextInside", nil)
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return nil, kperr.Wrap(kperr.ErrParseFailure, "xmlreader.ReadTextInside", err)
		}
		if len(raw) == 0 {
			return &Value{Protected: true}, nil
		}
		if c.ks == nil {
			if !c.strict {
				return &Value{Text: string(raw), Protected: true}, nil
			}
			return nil, kperr.Wrap(kperr.ErrParseFailure, "xmlreader.ReadTextInside", nil)
		}
		plain := c.ks.XOR(raw)
		return &Value{Text: string(plain), Protected: true}, nil

	default:
		// Unexpected node type immediately inside the element (comment,
		// nested element): push back and report no text.
		c.pending = tok
		c.havePending = true
		return &Value{Protected: isProtected}, nil
	}
}

// consumeClosingTag eats the EndElement that should directly follow a
// CharData text node; any other token read in its place is buffered for
// the next Read/ReadTextInside call (DO_NOT_READ).
func (c *Cursor) consumeClosingTag() error {
	tok, err := c.dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return kperr.Wrap(kperr.ErrParseFailure, "xmlreader.consumeClosingTag", err)
	}
	if _, ok := tok.(xml.EndElement); ok {
		c.depth--
		return nil
	}
	c.pending = tok
	c.havePending = true
	return nil
}
