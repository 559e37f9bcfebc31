package utils

import (
	"crypto/sha1"
	"encoding/hex"
)

// Digest identifies a blob by content.
type Digest [sha1.Size]byte

func DigestOf(b []byte) Digest {
	return sha1.Sum(b)
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
