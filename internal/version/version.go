// Package version provides version information for the echopicks binary.
package version

import "fmt"

// Version is the current version of the application.
// This is set at build time using -ldflags.
var Version = "dev"

// BuildTime is when the binary was built.
// This is set at build time using -ldflags.
var BuildTime = "unknown"

// String returns the formatted version information.
func String() string {
	return fmt.Sprintf("echopicks version %s (built %s)", Version, BuildTime)
}

// UserAgent is sent on outbound metadata and model requests.
func UserAgent() string {
	return "echopicks/" + Version
}
