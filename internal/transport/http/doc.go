// Package http provides the HTTP transport layer for SalesPulse. Handlers
// decode requests, call the services and render JSON or RFC 7807 problem
// responses.
//
// # Handlers
//
//	- UploadHandler: POST /api/upload, GET /api/metrics/{file_id},
//	  GET /api/raw-data/{file_id}, GET /api/uploaded-files and
//	  GET /api/export/{file_id}
//	- HealthHandler: GET / and GET /api/health
//	- WebSocketHandler: GET /ws, a stream of upload.processed events
//
// Service errors are mapped to API errors in one place per handler and
// rendered by the shared errors.ErrorHandler, so every failure carries
// detail, error_code and trace_id.
package http
