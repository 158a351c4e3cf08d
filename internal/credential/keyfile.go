package credential

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"

	"github.com/kpvault/kpvault/internal/kperr"
)

type keyFileXML struct {
	XMLName xml.Name `xml:"KeyFile"`
	Key     struct {
		Data string `xml:"Data"`
	} `xml:"Key"`
}

// ParseKeyFile recognizes a key file's 32-byte contribution, trying XML
// form first, then exact 32 raw bytes, then exact 64 hex characters. The
// first match wins; if none match, the file does not contribute a
// composite-key member.
func ParseKeyFile(data []byte) ([32]byte, error) {
	if hash, ok := parseXMLKeyFile(data); ok {
		return hash, nil
	}
	if len(data) == 32 {
		var out [32]byte
		copy(out[:], data)
		return out, nil
	}
	if len(data) == 64 {
		if hash, ok := parseHexKeyFile(data); ok {
			return hash, nil
		}
	}
	return [32]byte{}, kperr.Wrap(kperr.ErrKeyFileInvalid, "credential.ParseKeyFile", nil)
}

func parseXMLKeyFile(data []byte) ([32]byte, bool) {
	var kf keyFileXML
	if err := xml.Unmarshal(data, &kf); err != nil {
		return [32]byte{}, false
	}
	decoded, err := base64.StdEncoding.DecodeString(kf.Key.Data)
	if err != nil || len(decoded) != 32 {
		return [32]byte{}, false
	}
	var out [32]byte
	copy(out[:], decoded)
	return out, true
}

func parseHexKeyFile(data []byte) ([32]byte, bool) {
	for _, b := range data {
		isDigit := b >= '0' && b <= '9'
		isLower := b >= 'a' && b <= 'f'
		isUpper := b >= 'A' && b <= 'F'
		if !isDigit && !isLower && !isUpper {
			return [32]byte{}, false
		}
	}
	decoded, err := hex.DecodeString(string(data))
	if err != nil || len(decoded) != 32 {
		return [32]byte{}, false
	}
	var out [32]byte
	copy(out[:], decoded)
	return out, true
}
