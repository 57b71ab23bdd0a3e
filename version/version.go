// Package version holds build information injected at link time.
package version

import "runtime"

// Populated via -ldflags "-X github.com/carenotes/carenotes/version.GitRelease=..."
var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
)

// GoInfo reports the Go toolchain the binary was built with.
var GoInfo = runtime.Version()
