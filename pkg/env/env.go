package env

import (
	"fmt"
	"net/http"

	"github.com/carlmjohnson/versioninfo"
)

const unset = "unset"

// Version is the build version, overridable at link time; falls back to VCS
// info embedded by the Go toolchain.
var Version = unset

func VersionHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "%s\n", VersionString()) // nolint:errcheck
}

func VersionString() string {
	if Version != unset {
		return Version
	}
	return versioninfo.Short()
}

func IsProd() bool {
	return Version != unset
}
