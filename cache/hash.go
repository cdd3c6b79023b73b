// Package cache computes redaction cache keys and stores/retrieves
// PageOutput variants on disk, keyed by those hashes.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Settings holds only the configuration fields that influence a page's
// redaction output, the ones that belong in the cache key.
type Settings struct {
	BgQuality uint8
	ColorMode string
	DPI       uint32
	FgDPI     uint32
	FgQuality uint8
}

// canonicalJSON renders Settings with a fixed key order and no spaces:
// {"bg_quality":u8,"color_mode":"...","dpi":u32,"fg_dpi":u32,"fg_quality":u8}.
func (s Settings) canonicalJSON() []byte {
	return []byte(fmt.Sprintf(
		`{"bg_quality":%d,"color_mode":%q,"dpi":%d,"fg_dpi":%d,"fg_quality":%d}`,
		s.BgQuality, s.ColorMode, s.DPI, s.FgDPI, s.FgQuality,
	))
}

// Key computes SHA-256(content-stream-bytes || canonical-settings-JSON)
// and returns it as a lowercase hex string. The function is pure: equal
// inputs always produce equal keys, and the canonical JSON's fixed key
// order means two Settings values with the same field values always
// serialize identically regardless of struct-literal field order.
func Key(contentStream []byte, settings Settings) string {
	h := sha256.New()
	h.Write(contentStream)
	h.Write(settings.canonicalJSON())
	return hex.EncodeToString(h.Sum(nil))
}
