package models

import (
	"crypto/md5"
	"encoding/hex"
)

const identitySeparator = "|"

// ResolveID derives the stable grant id from program name and provider.
// Matching is exact and case-sensitive; no other field participates.
func ResolveID(programName, provider string) string {
	sum := md5.Sum([]byte(programName + identitySeparator + provider))
	return hex.EncodeToString(sum[:])
}
