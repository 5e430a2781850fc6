package tree

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns a SHA-256 digest of the snapshot content. Two snapshots with
// the same persons and relationships in the same order hash equally,
// whatever their version.
func Hash(s *Snapshot) string {
	d := s.Data()
	d.Version = 0
	data, _ := json.Marshal(d)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
