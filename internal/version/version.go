// Package version reports build metadata and the C interface revision.
package version

import (
	"fmt"
	"strconv"
)

// APIRevision identifies the exported C interface. It only ever increases;
// bump it whenever an export is added, removed, or changes meaning.
const APIRevision uint64 = 1

// Version values are set at build time using -ldflags.
var Version = "dev"
var Major = "0"
var Minor = "0"
var Patch = "0"
var Built = ""
var GitCommit = ""

type VersionInfo struct {
	Version     string `json:"version"`
	Major       int    `json:"major"`
	Minor       int    `json:"minor"`
	Patch       int    `json:"patch"`
	APIRevision uint64 `json:"api_revision"`
	Built       string `json:"built"`
	GitCommit   string `json:"git_commit,omitempty"`
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:     Version,
		Major:       parseInt(Major),
		Minor:       parseInt(Minor),
		Patch:       parseInt(Patch),
		APIRevision: APIRevision,
		Built:       Built,
		GitCommit:   GitCommit,
	}
}

func (info VersionInfo) String() string {
	text := fmt.Sprintf("trussfs %s (api %d)", info.Version, info.APIRevision)
	if info.GitCommit != "" {
		text += " " + info.GitCommit
	}
	return text
}

func parseInt(value string) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed
}
