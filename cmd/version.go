// Package cmd holds build information shared by the storeguard binaries.
package cmd

var version = "dev"

// SetVersion sets the version string reported by the binaries.
func SetVersion(v string) {
	version = v
}

// GetVersion returns the version string set at startup.
func GetVersion() string {
	return version
}
