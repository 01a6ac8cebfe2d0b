package cache

import "strings"

const (
	GlobalKeyPrefix = "quizreview"

	// BankService namespaces question bank entries.
	BankService = "bank"
	// SnapshotObject is a normalized, already validated bank.
	SnapshotObject = "snapshot"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// BankSnapshotKey addresses the snapshot of a bank file with the given
// content fingerprint, loaded under the given validation mode.
func BankSnapshotKey(fingerprint, mode string) string {
	return GenerateCacheKey(BankService, SnapshotObject, fingerprint, mode)
}
