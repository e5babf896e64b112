package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by kind).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// PageUUID identifies a Markdown page by route.
func PageUUID(route string) uuid.UUID {
	return UUID("ike:page:" + strings.TrimSpace(route))
}

// ReferenceUUID identifies a reference page by descriptor name.
func ReferenceUUID(name string) uuid.UUID {
	return UUID("ike:reference:" + strings.TrimSpace(name))
}

// AssetUUID identifies a copied asset by its output path.
func AssetUUID(rel string) uuid.UUID {
	return UUID("ike:asset:" + strings.TrimSpace(rel))
}
