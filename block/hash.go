package block

import "crypto/sha256"

// Hash computes the digest of the template's serialized bytes. The digest
// is what gets compared against the difficulty target; any field mutation
// invalidates a previously computed digest.
func (t *Template) Hash() Digest {
	return sha256.Sum256(t.Serialize())
}

// HashBytes hashes an arbitrary payload with the same function used for
// templates. Used by the benchmark mode.
func HashBytes(data []byte) Digest {
	return sha256.Sum256(data)
}
