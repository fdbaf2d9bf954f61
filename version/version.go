package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/dreamer-zq/savekit/version.Version=..."
var (
	// Version is the release version
	Version = "dev"
	// GitCommit is the commit the binary was built from
	GitCommit = ""
)

// Info describes the running binary
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// NewInfo returns the build information of the running binary
func NewInfo() *Info {
	return &Info{
		Version:   Version,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders one field per line
func (v *Info) String() string {
	commit := v.GitCommit
	if commit == "" {
		commit = "unknown"
	}
	return fmt.Sprintf("Version: %s\nGit Commit: %s\nGo: %s\nPlatform: %s", v.Version, commit, v.GoVersion, v.Platform)
}
