// Package shared holds code used across SalesPulse packages that belongs to
// no single layer.
//
// The testutil subpackage provides a capturing slog handler and sample
// sales CSV fixtures:
//
//	func TestUpload(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    csv := testutil.SalesCSV(testutil.DefaultOrders()...)
//	    // ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "upload processed")
//	}
//
// Nothing in this package may import business packages.
package shared
