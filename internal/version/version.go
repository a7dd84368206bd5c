// Package version reports the build version and checks it against
// constraints written in configuration files.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

var (
	// Version is the main version number that is being run at the moment.
	Version = "0.1.0"

	// GitCommit is the git commit that was compiled. This will be filled in by the compiler.
	GitCommit string

	// BuildDate is the date the binary was built
	BuildDate string
)

// FullVersion returns the full version string
func FullVersion() string {
	version := Version
	if GitCommit != "" {
		commit := GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		version += fmt.Sprintf(" (%s)", commit)
	}
	if BuildDate != "" {
		version += fmt.Sprintf(" built on %s", BuildDate)
	}
	return version
}

// Semantic parses Version. A leading "v" is accepted.
func Semantic() (*semver.Version, error) {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid build version %q: %w", Version, err)
	}
	return v, nil
}

// Short returns major.minor.patch, or Version unchanged if it does not parse.
func Short() string {
	v, err := Semantic()
	if err != nil {
		return Version
	}
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

// Check reports an error if the running version does not satisfy
// constraint, for example ">= 0.1, < 1.0". An empty constraint always
// passes.
func Check(constraint string) error {
	if constraint == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}

	v, err := Semantic()
	if err != nil {
		return err
	}

	if ok, errs := c.Validate(v); !ok {
		if len(errs) > 0 {
			return fmt.Errorf("version %s does not satisfy %q: %w", v, constraint, errs[0])
		}
		return fmt.Errorf("version %s does not satisfy %q", v, constraint)
	}
	return nil
}
