package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Sha256Hex returns the lowercase hex SHA-256 of data; the content address
// for document and match cache keys.
func Sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SettingsSignature hashes a stable serialization of all tunable settings
// that influence extraction or matching. Any config or logic-version change
// yields a new signature and therefore a cache miss, invalidating stale
// results automatically.
func SettingsSignature(settings map[string]string) string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s;", k, settings[k])
	}
	return Sha256Hex([]byte(b.String()))
}

// HintKey builds the document-cache hint component from the product-type
// context and the cache schema version. Edital text covering several
// procurement items yields different requirement sets per relevant item, so
// the hint is part of the key.
func HintKey(productHint, schemaVersion string) string {
	normalized := NormalizeText(productHint)
	if normalized == "" {
		normalized = "generic"
	}
	return schemaVersion + ":" + Sha256Hex([]byte(normalized))[:16]
}
