package domain

import (
	"testing"

	"culturecore/testutil"
)

// The domain package is the dependency floor of the module: entities, rules,
// and persistence contracts must not reach back into internal packages.
func TestDomainHasNoInternalImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "domain must not depend on internal packages")
}
