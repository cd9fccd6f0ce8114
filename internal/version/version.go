package version

// Version is the build version of the setup monitor.
// Set at build time:
// -ldflags "-X github.com/rxtech-lab/argo-setups/internal/version.Version=1.2.3"
// The value "main" marks a development build.
var Version = "v1.0.0"

// GetVersion returns the build version.
func GetVersion() string {
	return Version
}
