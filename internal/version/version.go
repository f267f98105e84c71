package version

var (
	// Version is the current client version.
	// It is populated by the build system via ldflags.
	Version = "v0.3.0"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// UserAgent is the default User-Agent sent with every Gotenberg request.
func UserAgent() string {
	return "gotenberg-client/" + Version
}
