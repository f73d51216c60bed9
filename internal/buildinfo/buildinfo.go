package buildinfo

import "fmt"

// Project is the package identity reported by the binary and stored in runs.
const Project = "deshima-sensitivity"

// Version follows the calculator release; Commit and Date are set with -ldflags.
var (
	Version = "0.2.6"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("%s %s (commit=%s, date=%s)", Project, Version, Commit, Date)
}
