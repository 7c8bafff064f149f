package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/nos-commerce-backend/internal/platform/cache"
)

// Cache key roots. Kept in one place so the invalidation table and the read
// paths can never disagree on spelling.
const (
	productEntityType   = "products"
	productSearchPrefix = "products:search"
	walletKeyPrefix     = "wallet"
	walletTxnsPrefix    = "wallet:txns"
	cartKeyPrefix       = "cart"
	orderSearchPrefix   = "orders:search"
	orderUserPrefix     = "orders:user"
)

// Mutation labels a class of write the core performs. Every mutation maps to
// the full set of cache artifacts it can stale through the table below; write
// paths name the mutation and never pick keys ad hoc.
type Mutation string

const (
	MutationProduct Mutation = "product"
	MutationWallet  Mutation = "wallet"
	MutationLedger  Mutation = "ledger"
	MutationCart    Mutation = "cart"
	MutationOrder   Mutation = "order"
)

// invalidationTargets describes what a mutation stales
type invalidationTargets struct {
	// entityType drops hash fields for the touched ids and the whole id
	// set, forcing the next list-all back to the database
	entityType string
	// ownerPrefixes are dropped scoped to the owning user id
	ownerPrefixes []string
	// globalPrefixes are dropped wholesale
	globalPrefixes []string
}

var invalidationTable = map[Mutation]invalidationTargets{
	MutationProduct: {
		entityType:     productEntityType,
		globalPrefixes: []string{productSearchPrefix},
	},
	MutationWallet: {
		ownerPrefixes: []string{walletKeyPrefix},
	},
	MutationLedger: {
		// A ledger write can also move the balance, so both fall together
		ownerPrefixes: []string{walletKeyPrefix, walletTxnsPrefix},
	},
	MutationCart: {
		ownerPrefixes: []string{cartKeyPrefix},
	},
	MutationOrder: {
		ownerPrefixes:  []string{orderUserPrefix},
		globalPrefixes: []string{orderSearchPrefix},
	},
}

// Invalidator evicts cache artifacts after a store commit. Eviction is
// best-effort and bounded by its own timeout: a failure leaves stale data to
// age out through TTLs and is logged, never surfaced to the client.
type Invalidator struct {
	cache   cache.Cache
	logger  *slog.Logger
	timeout time.Duration
}

func NewInvalidator(c cache.Cache, timeout time.Duration, logger *slog.Logger) *Invalidator {
	return &Invalidator{
		cache:   c,
		logger:  logger,
		timeout: timeout,
	}
}

// Invalidate drops every artifact the mutation maps to. ids scope the entity
// hash fields, ownerID scopes the per-user prefixes; either may be empty when
// the mutation has no targets of that shape. Runs on a detached context so a
// cancelled request cannot abandon eviction for a commit that happened.
func (i *Invalidator) Invalidate(m Mutation, ownerID string, ids ...string) {
	targets, ok := invalidationTable[m]
	if !ok {
		i.logger.Error("Unknown cache mutation", "mutation", string(m))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	if targets.entityType != "" {
		if len(ids) > 0 {
			if err := i.cache.DeleteHashFields(ctx, cache.EntityHashKey(targets.entityType), ids...); err != nil {
				i.logger.Warn("Cache eviction failed", "mutation", string(m), "key", cache.EntityHashKey(targets.entityType), "error", err)
			}
		}
		if err := i.cache.DeleteKey(ctx, cache.IDSetKey(targets.entityType)); err != nil {
			i.logger.Warn("Cache eviction failed", "mutation", string(m), "key", cache.IDSetKey(targets.entityType), "error", err)
		}
	}

	for _, prefix := range targets.ownerPrefixes {
		if ownerID == "" {
			continue
		}
		if err := i.cache.DeleteByPrefix(ctx, prefix+":"+ownerID); err != nil {
			i.logger.Warn("Cache eviction failed", "mutation", string(m), "prefix", prefix+":"+ownerID, "error", err)
		}
	}

	for _, prefix := range targets.globalPrefixes {
		if err := i.cache.DeleteByPrefix(ctx, prefix+":"); err != nil {
			i.logger.Warn("Cache eviction failed", "mutation", string(m), "prefix", prefix+":", "error", err)
		}
	}
}
