package version

// Build information set by ldflags
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
