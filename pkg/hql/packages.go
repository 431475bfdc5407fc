package hql

import (
	"embed"
	"strings"
)

//go:embed packages/*.hql
var embeddedPackages embed.FS

// packageVersions is the embedded-package table's version manifest
// (spec.md §4.8 step 3 / SPEC_FULL.md §B's semver wiring): every embedded
// package ships as a single version today, but the table is shaped so a
// future multi-version package needs no caller-side changes.
var packageVersions = map[string][]string{
	"math": {"v1.0.0"},
	"list": {"v1.0.0"},
}

// lookupEmbeddedPackage implements linker.PackageLookup against the
// embedded packages directory: name may already carry a "@version" suffix
// (selected by the resolver against packageVersions) which is stripped
// before the file lookup, since every embedded package ships as one file
// regardless of which version string was requested.
func lookupEmbeddedPackage(name string) (source string, ok bool, fallback string) {
	base, _ := splitEmbeddedName(name)
	data, err := embeddedPackages.ReadFile("packages/" + base + ".hql")
	if err != nil {
		return "", false, ""
	}
	return string(data), true, ""
}

// listEmbeddedVersions implements linker.PackageVersions.
func listEmbeddedVersions(name string) []string {
	return packageVersions[name]
}

func splitEmbeddedName(name string) (base, version string) {
	if idx := strings.LastIndex(name, "@"); idx > 0 {
		return name[:idx], name[idx+1:]
	}
	return name, ""
}
