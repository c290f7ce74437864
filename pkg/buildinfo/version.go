// Package buildinfo holds build-time version information for dialoguegraph.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/matzehuels/dialoguegraph/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/dialoguegraph/pkg/buildinfo.Commit=$(git rev-parse HEAD)"
package buildinfo

import "fmt"

// AppName is the program name used in version output and server headers.
const AppName = "dialoguegraph"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the multi-line build description shown by `version`.
func String() string {
	return fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s", AppName, Version, shortCommit(), Date)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s (%s)\n", Version, shortCommit())
}

// ServerHeader is the value of the Server header sent by `serve`.
func ServerHeader() string {
	return AppName + "/" + Version
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
