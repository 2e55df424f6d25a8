package algo

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// SHA256Hex returns the hex-encoded SHA-256 digest of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ConsistentHash maps s to a stable integer built from the last 15 hex digits
// of its SHA-256 digest. The value is identical across processes and machines.
func ConsistentHash(s string) uint64 {
	digest := SHA256Hex(s)
	v, _ := strconv.ParseUint(digest[len(digest)-15:], 16, 64)
	return v
}

// Partition assigns s to one of n buckets. n must be positive.
func Partition(s string, n int) int {
	return int(ConsistentHash(s) % uint64(n))
}
