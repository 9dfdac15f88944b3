package util

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Digest hashes parts into a hex key. Each part is length-prefixed, so ("ab","c") and ("a","bc") differ.
// Digest 计算多段文本的摘要，用作缓存键
func Digest(parts ...string) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
