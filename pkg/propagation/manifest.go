package propagation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/versync/pkg/logger"
	"github.com/fulmenhq/versync/pkg/safeio"
)

const (
	manifestName = "package.json"
	lockName     = "package-lock.json"
)

// UpdatePackage sets the version in a package location's manifest and, when a
// companion lockfile exists, in every version-bearing slot of the lockfile.
// The manifest version is overwritten regardless of its previous value and
// created when absent. A missing lockfile is not an error; a missing manifest
// is. Any returned error covers this location only.
func UpdatePackage(dir, version string) error {
	manifestPath := filepath.Join(dir, manifestName)

	data, err := os.ReadFile(manifestPath) // #nosec G304 - locations come from the release policy
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", manifestPath, err)
	}

	var manifest map[string]interface{}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", manifestPath, err)
	}

	manifest["version"] = version

	if err := writeJSON(manifestPath, manifest); err != nil {
		return err
	}
	logger.Info("Updated manifest", logger.String("file", manifestPath), logger.String("version", version))

	name, _ := manifest["name"].(string)
	return updateLockfile(filepath.Join(dir, lockName), name, version)
}

// updateLockfile updates the version slots a lockfile may carry, depending on
// the lockfile generation that produced it: the top-level version, the root
// entry of the packages map (keyed by the empty string), and the entry of the
// dependencies map keyed by the manifest name. Absent slots are skipped.
// Attempting every known slot instead of branching on a declared lockfile
// version trades a little redundant work for robustness as formats evolve.
func updateLockfile(path, packageName, version string) error {
	data, err := os.ReadFile(path) // #nosec G304 - locations come from the release policy
	if err != nil {
		if os.IsNotExist(err) {
			return nil // manifest update alone is sufficient
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var lock map[string]interface{}
	if err := json.Unmarshal(data, &lock); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if _, ok := lock["version"]; ok {
		lock["version"] = version
	}

	if packages, ok := lock["packages"].(map[string]interface{}); ok {
		if root, ok := packages[""].(map[string]interface{}); ok {
			if _, ok := root["version"]; ok {
				root["version"] = version
			}
		}
	}

	if deps, ok := lock["dependencies"].(map[string]interface{}); ok && packageName != "" {
		if entry, ok := deps[packageName].(map[string]interface{}); ok {
			if _, ok := entry["version"]; ok {
				entry["version"] = version
			}
		}
	}

	if err := writeJSON(path, lock); err != nil {
		return err
	}
	logger.Info("Updated lockfile", logger.String("file", path), logger.String("version", version))
	return nil
}

// ReadManifestVersion returns the version field of a location's manifest.
func ReadManifestVersion(dir string) (string, error) {
	manifestPath := filepath.Join(dir, manifestName)

	data, err := os.ReadFile(manifestPath) // #nosec G304 - locations come from the release policy
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", manifestPath, err)
	}

	var manifest struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", manifestPath, err)
	}
	if manifest.Version == "" {
		return "", fmt.Errorf("no version field found in %s", manifestPath)
	}
	return manifest.Version, nil
}

func writeJSON(path string, doc map[string]interface{}) error {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	out = append(out, '\n')

	if err := safeio.WriteFilePreservePerms(path, out); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
