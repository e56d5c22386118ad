package githash

import "crypto/sha1" //nolint:gosec // the hash algorithm is a pluggable, out-of-scope primitive

// SHA1 is the default Hasher, matching the on-disk format this module
// targets.
type SHA1 struct{}

// NewSHA1 returns a Hasher that computes SHA-1 digests.
func NewSHA1() Hasher {
	return SHA1{}
}

// Sum implements Hasher.
func (SHA1) Sum(buffers ...[]byte) Oid {
	h := sha1.New() //nolint:gosec
	for _, b := range buffers {
		h.Write(b) //nolint:errcheck // hash.Hash.Write never fails
	}
	var oid Oid
	copy(oid[:], h.Sum(nil))
	return oid
}
