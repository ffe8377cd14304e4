package imgutil

import (
	"encoding/base64"
	"strings"
)

const base64Marker = ";base64,"

// DataURL builds a self-describing data URL for an encoded payload.
func DataURL(mimeType string, payload []byte) string {
	var b strings.Builder
	b.Grow(len("data:") + len(mimeType) + len(base64Marker) + base64.StdEncoding.EncodedLen(len(payload)))
	b.WriteString("data:")
	b.WriteString(mimeType)
	b.WriteString(base64Marker)
	b.WriteString(base64.StdEncoding.EncodeToString(payload))
	return b.String()
}

// StripDataURL returns the base64 payload of a data URL. A string without
// the ";base64," marker is returned unchanged.
func StripDataURL(dataURL string) string {
	idx := strings.Index(dataURL, base64Marker)
	if idx < 0 {
		return dataURL
	}
	return dataURL[idx+len(base64Marker):]
}

// DecodeBase64 decodes a bare base64 payload or a full data URL.
func DecodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(StripDataURL(s))
}
