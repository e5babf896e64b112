package interfaces

import (
	repocache "github.com/goliatone/go-repository-cache/cache"
)

// CacheService is the read-through cache shared by the descriptor client
// and the tag renderer. Callers prefix their keys so a family of entries can
// be dropped with DeleteByPrefix.
type CacheService = repocache.CacheService
