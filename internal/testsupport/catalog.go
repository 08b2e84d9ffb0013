package testsupport

import (
	"testing"

	"cliprate/internal/catalog"
	"cliprate/internal/session"
)

// MustLoadCatalog loads the embedded default catalog for tests.
func MustLoadCatalog(t testing.TB) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	return cat
}

// FixedRand returns a deterministic randomizer so shuffled clip orders are
// reproducible across test runs.
func FixedRand(t testing.TB, seed int64) session.Randomizer {
	t.Helper()
	return session.NewRand(seed)
}
