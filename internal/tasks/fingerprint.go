package tasks

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/desertthunder/discwatch/internal/shared"
)

// Fingerprint identifies one logical download request: an album of an artist under a given album type filter.
type Fingerprint string

// NewFingerprint hashes the canonical form of (artistID, albumID, albumTypeFilter).
//
// The filter is normalized first, so "single,album" and "Album, single" produce the same fingerprint.
func NewFingerprint(artistID, albumID, albumTypeFilter string) Fingerprint {
	parts := []string{
		"artist=" + strings.TrimSpace(artistID),
		"album=" + strings.TrimSpace(albumID),
		"types=" + strings.Join(shared.NormalizeAlbumTypes(albumTypeFilter), ","),
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return Fingerprint(hex.EncodeToString(hash[:]))
}

// Short returns the first 12 characters, for logs.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}
