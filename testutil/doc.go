// Package testutil starts in-process services for tests and keeps them
// isolated between cases.
//
// A TestComponent is a component.Component that can also be reset,
// snapshotted and restored:
//
//	func TestSearch(t *testing.T) {
//	    svc := testutil.NewService() // elastic/testutil
//	    tu.T(t).Setup(svc)            // stopped when the test ends
//	    tu.T(t).Reset(svc)
//	}
//
// Manager groups several components on top of a component.Registry, so
// they start in order and stop in reverse.
package testutil
