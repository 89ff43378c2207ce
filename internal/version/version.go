package version

// Build information set by ldflags
var (
	Version = "dev"     // Set by goreleaser: -X dotconf/internal/version.Version={{.Version}}
	Commit  = "unknown" // Set by goreleaser: -X dotconf/internal/version.Commit={{.Commit}}
	Date    = "unknown" // Set by goreleaser: -X dotconf/internal/version.Date={{.Date}}
)
