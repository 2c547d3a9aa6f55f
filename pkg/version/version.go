package version

import "fmt"

// Build and Commit are injected via -ldflags. Build defaults to "dev".
var (
	Build  = "dev"
	Commit = ""
)

func String() string {
	if Commit == "" {
		return Build
	}
	return fmt.Sprintf("%s (%s)", Build, Commit)
}
