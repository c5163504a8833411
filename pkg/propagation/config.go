package propagation

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/fulmenhq/versync/pkg/logger"
	"github.com/fulmenhq/versync/pkg/safeio"
	"github.com/pelletier/go-toml/v2"
)

// ErrVersionNotFound is returned when the workspace config contains no
// version assignment.
var ErrVersionNotFound = errors.New("no version assignment found")

// versionAssignPattern matches a TOML-style version assignment. The first
// match in the workspace config is the authoritative package version.
var versionAssignPattern = regexp.MustCompile(`version\s*=\s*"([^"]+)"`)

// ExtractWorkspaceVersion returns the value of the first version assignment
// in the given config text.
func ExtractWorkspaceVersion(content string) (string, error) {
	m := versionAssignPattern.FindStringSubmatch(content)
	if m == nil {
		return "", ErrVersionNotFound
	}
	return m[1], nil
}

// RewriteWorkspaceConfig replaces every `version = "<current>"` assignment in
// the config file with the new version, where <current> is the first version
// value extracted from the file. All other bytes are preserved, including
// unrelated fields that happen to hold the same literal.
//
// A missing config file is a fatal condition for the whole run, as is a file
// with no extractable version: substituting an empty current value would turn
// the replacement pattern into a match-everything expression and corrupt the
// file, so the precondition is checked before any write.
func RewriteWorkspaceConfig(path, newVersion string) error {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from the release policy
	if err != nil {
		return fmt.Errorf("failed to read workspace config %s: %w", path, err)
	}

	content := string(data)
	current, err := ExtractWorkspaceVersion(content)
	if err != nil {
		return fmt.Errorf("workspace config %s: %w", path, err)
	}

	pattern := regexp.MustCompile(`(version\s*=\s*)"` + regexp.QuoteMeta(current) + `"`)
	updated := pattern.ReplaceAllString(content, `${1}"`+newVersion+`"`)

	if err := safeio.WriteFilePreservePerms(path, []byte(updated)); err != nil {
		return fmt.Errorf("failed to write workspace config %s: %w", path, err)
	}

	logger.Info("Updated workspace config",
		logger.String("file", path),
		logger.String("from", current),
		logger.String("to", newVersion))
	return nil
}

// ReadWorkspaceVersion parses the config file structurally and returns the
// package version. Used by the consistency check; the rewrite path stays on
// targeted text substitution so unrelated formatting survives.
func ReadWorkspaceVersion(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from the release policy
	if err != nil {
		return "", fmt.Errorf("failed to read workspace config %s: %w", path, err)
	}

	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse workspace config %s: %w", path, err)
	}

	// [package] section first, then [workspace.package] for virtual workspaces
	if pkg, ok := doc["package"].(map[string]interface{}); ok {
		if v, ok := pkg["version"].(string); ok && v != "" {
			return v, nil
		}
	}
	if ws, ok := doc["workspace"].(map[string]interface{}); ok {
		if pkg, ok := ws["package"].(map[string]interface{}); ok {
			if v, ok := pkg["version"].(string); ok && v != "" {
				return v, nil
			}
		}
	}

	// Fall back to the textual extraction for configs that keep the version
	// at the top level or in a section we do not model.
	return ExtractWorkspaceVersion(string(data))
}
