package contracts

import (
	"fmt"
	"runtime"
)

// Version is the current version of the application
const Version = "0.3.0"

// APIVersion is the version of the HTTP API
const APIVersion = "v1"

// Set during build using ldflags
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionString returns a one-line version description including build metadata
func VersionString() string {
	return fmt.Sprintf("SalesPulse v%s (api %s, built: %s, commit: %s, %s %s/%s)",
		Version, APIVersion, BuildTime, GitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
