package cache

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Key builders. Every cached artifact goes through one of these so the
// invalidation table and the read paths can never disagree on spelling.

const (
	hashSuffix  = ":data"
	idSetSuffix = ":ids"
)

// EntityHashKey is the hash holding serialized entities of one type,
// field = entity id
func EntityHashKey(entityType string) string {
	return entityType + hashSuffix
}

// IDSetKey is the set of ids the entity hash fully covers. List-all reads
// are only served from cache when every member of this set hits the hash.
func IDSetKey(entityType string) string {
	return entityType + idSetSuffix
}

// ValueKey is a whole serialized aggregate keyed by owner id,
// e.g. "wallet:<user>" or "cart:<user>"
func ValueKey(prefix, ownerID string) string {
	return prefix + ":" + ownerID
}

// DerivedQueryKey names one parameterized query result. The parameters are
// hashed so arbitrary filter combinations produce bounded-length keys; the
// whole prefix is dropped on invalidation, so collisions only cost a stale
// read within the TTL.
func DerivedQueryKey(prefix string, params ...string) string {
	sum := md5.Sum([]byte(strings.Join(params, "|")))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// DerivedQueryPrefix is the wildcard root for DeleteByPrefix
func DerivedQueryPrefix(prefix string) string {
	return prefix + ":"
}
