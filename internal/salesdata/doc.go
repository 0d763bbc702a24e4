// Package salesdata turns raw point-of-sale CSV exports into typed datasets
// and computes the fixed set of sales metrics served by the API.
//
// # Architecture
//
// The package is organized into three parts:
//
// 1. Transformer: parses CSV bytes, fills defaults, derives time and revenue fields
// 2. Aggregator: computes totals, rankings and grouped revenue sums
// 3. Serializer: converts record values to JSON-safe primitives
//
// # Usage
//
//	ds, report, err := salesdata.Transform(raw)
//	if err != nil {
//	    var perr *salesdata.ParseError
//	    if errors.As(err, &perr) {
//	        // client error
//	    }
//	}
//	log.Printf("dropped %d rows", report.RowsDropped())
//	metrics := salesdata.Aggregate(ds)
//
// All functions are pure. They perform no I/O and keep no state between calls.
package salesdata
