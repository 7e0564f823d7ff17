package version

// Build-time variables set by ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version information
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

// Pipeline returns the identifier recorded in per-document reports, or nil
// when no commit is baked in.
func Pipeline() *string {
	if GitCommit == "" || GitCommit == "unknown" {
		return nil
	}
	v := GitCommit
	return &v
}
