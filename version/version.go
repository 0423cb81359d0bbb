// Package version provides build version information embedding.
//
// Version is set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/restkit/version.Version=1.0.0"
package version

import "fmt"

// Version is set at build time using -ldflags. Defaults to "dev".
var Version = "dev"

// UserAgent returns the User-Agent value the HTTP client sends by default.
func UserAgent() string {
	return fmt.Sprintf("restkit/%s", Version)
}
