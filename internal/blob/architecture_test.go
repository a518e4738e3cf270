package blob

import (
	"strings"
	"testing"

	"culturecore/testutil"
)

// Only the blob facade may touch the infra-backed drivers. Everything else in
// the module depends on the blob.Store interface.
func TestOnlyBlobFacadeImportsInfraDrivers(t *testing.T) {
	allowed := func(pkgPath string) bool {
		return strings.HasPrefix(pkgPath, "culturecore/internal/blob") ||
			strings.HasPrefix(pkgPath, "culturecore/internal/infra/blob")
	}
	testutil.AssertNoPackageImports(t, "culturecore/...", allowed,
		testutil.PrefixForbidden("culturecore/internal/infra/blob"),
		"blob infra drivers are reached through the facade")
}
