package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
)

// CheckConfigCompatibility checks whether a configuration file written for
// configVersion can be read by a binary at binaryVersion.
//
// Rules:
//   - "main" on either side skips the check (development builds)
//   - an empty config version is accepted (files written before versioning)
//   - major versions must match
//   - the config minor version must not be newer than the binary's
//
// Examples:
//   - binary 1.2.0, config 1.2.0 -> OK
//   - binary 1.3.0, config 1.2.4 -> OK (older config minor)
//   - binary 1.2.0, config 1.3.0 -> ERROR (config needs newer setups)
//   - binary 2.0.0, config 1.2.0 -> ERROR (major differs)
//
// Unparseable versions fail with ErrCodeInvalidVersion, incompatible ones with
// ErrCodeVersionMismatch.
func CheckConfigCompatibility(binaryVersion, configVersion string) error {
	binaryVersion = strings.TrimPrefix(binaryVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if configVersion == "" || binaryVersion == "main" || configVersion == "main" {
		return nil
	}

	binarySemver, err := semver.NewVersion(binaryVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid binary version '%s'", binaryVersion)
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid config version '%s'", configVersion)
	}

	if binarySemver.Major() != configSemver.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "major version mismatch: binary is %d.x.x but config was written for %d.x.x",
			binarySemver.Major(), configSemver.Major())
	}

	if configSemver.Minor() > binarySemver.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "config version %s is newer than binary %d.%d.x",
			configSemver.String(), binarySemver.Major(), binarySemver.Minor())
	}

	return nil
}
