package template

import (
	"fmt"
	"strconv"
	"strings"
)

// LatestVersion resolves the descriptor matching CurrentVersion, falling
// back to the last element when no match exists. Returns nil for an empty
// version list.
func LatestVersion(s Summary) *VersionDescriptor {
	if len(s.Versions) == 0 {
		return nil
	}
	for i := range s.Versions {
		if s.Versions[i].Version == s.CurrentVersion {
			return &s.Versions[i]
		}
	}
	return &s.Versions[len(s.Versions)-1]
}

// VersionInfo returns the descriptor for an exact version, or nil.
func VersionInfo(s Summary, version string) *VersionDescriptor {
	for i := range s.Versions {
		if s.Versions[i].Version == version {
			return &s.Versions[i]
		}
	}
	return nil
}

// HasNewerVersion reports whether the latest version sits at a strictly
// greater position in the versions sequence than currentVersion. A version
// absent from the sequence has index -1 and is older than everything.
func HasNewerVersion(s Summary, currentVersion string) bool {
	latest := LatestVersion(s)
	if latest == nil {
		return false
	}
	return versionIndex(s, latest.Version) > versionIndex(s, currentVersion)
}

func versionIndex(s Summary, version string) int {
	for i := range s.Versions {
		if s.Versions[i].Version == version {
			return i
		}
	}
	return -1
}

// NextVersionNumber proposes the next revision tag for a v<integer> tag.
// Malformed or absent input resets to "v1". This governs author-facing
// revision numbering only; it never touches stored project data.
func NextVersionNumber(current string) string {
	rest, ok := strings.CutPrefix(current, "v")
	if !ok {
		return "v1"
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return "v1"
	}
	return fmt.Sprintf("v%d", n+1)
}
