package domain

import (
	"testing"

	"chambercore/testutil"
)

// TestDomainBoundaryGuards enforces that the domain package stays free of
// service and infra dependencies. It defines the contracts that the rest of
// the module implements, never the other way around.
func TestDomainBoundaryGuards(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", func(ip string) bool {
		return testutil.InternalImportForbidden(ip)
	}, "domain must not import internal packages")

	testutil.AssertNoTransitiveDependency(t, ".", func(p string) bool {
		return testutil.CoreImportForbidden(p) || testutil.InfraImportForbidden(p)
	}, "domain must not depend on the service or infra layers")
}
