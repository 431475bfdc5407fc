package linker

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// SplitPackageSpecifier separates a `@hql/<name>` specifier's package name
// from an optional trailing `@<version-constraint>` (e.g.
// `@hql/list@v1.2.0` or `@hql/list@v1`), per the embedded-package table
// SPEC_FULL.md assigns x/mod/semver to validate.
func SplitPackageSpecifier(nameAndVersion string) (name, constraint string) {
	if idx := strings.LastIndex(nameAndVersion, "@"); idx > 0 {
		candidate := nameAndVersion[idx+1:]
		if semver.IsValid(canonicalizeVersion(candidate)) {
			return nameAndVersion[:idx], candidate
		}
	}
	return nameAndVersion, ""
}

// canonicalizeVersion prefixes a bare "1.2.0"/"1" version with "v" so it
// parses under semver's Go-module-style "vX.Y.Z" convention; constraints
// already written as "v1.2.0" pass through unchanged.
func canonicalizeVersion(v string) string {
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// SelectVersion picks the highest version in available satisfying
// constraint (an exact version, a bare major "v1", or "" for "latest").
// available need not be sorted. Returns ok=false if nothing satisfies it.
func SelectVersion(constraint string, available []string) (string, bool) {
	candidates := make([]string, 0, len(available))
	for _, v := range available {
		cv := canonicalizeVersion(v)
		if !semver.IsValid(cv) {
			continue
		}
		candidates = append(candidates, cv)
	}
	if len(candidates) == 0 {
		return "", false
	}

	cc := canonicalizeVersion(constraint)
	if constraint != "" {
		filtered := candidates[:0:0]
		for _, v := range candidates {
			if satisfies(v, cc) {
				filtered = append(filtered, v)
			}
		}
		candidates = filtered
		if len(candidates) == 0 {
			return "", false
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return semver.Compare(candidates[i], candidates[j]) < 0 })
	return candidates[len(candidates)-1], true
}

// satisfies reports whether version v (full "vX.Y.Z") matches constraint c,
// where c may itself be a full version (exact match), a "vX.Y" prefix, or a
// bare "vX" major constraint.
func satisfies(v, c string) bool {
	switch strings.Count(c, ".") {
	case 2:
		return semver.Compare(v, c) == 0
	case 1:
		return semver.MajorMinor(v) == c
	default:
		return semver.Major(v) == c
	}
}
