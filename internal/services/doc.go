// Package services implements the business logic layer of SalesPulse. It
// sits between the HTTP handlers and the upload store.
//
// # Available Services
//
//	- UploadService: validates, transforms, aggregates, stores and publishes
//	  uploaded sales files, and serves metrics, raw rows, the upload
//	  directory and dataset exports
//	- HealthService: readiness and health reporting
//
// # Error Handling
//
// Services return sentinel errors that handlers map to HTTP statuses:
//
//	- ErrInvalidExtension, ErrMissingFile and *salesdata.ParseError: 400
//	- ErrInvalidLimit, ErrInvalidExportFormat: 400
//	- ErrUploadNotFound: 404
//
// Anything else is an internal error.
package services
