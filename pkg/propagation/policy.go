package propagation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/versync/pkg/logger"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// DefaultPolicyPath is where LoadPolicy looks when no path is supplied.
const DefaultPolicyPath = ".versync/release-policy.yaml"

//go:embed release-policy-schema.json
var policySchema []byte

// ReleasePolicy defines the structure of .versync/release-policy.yaml. It
// carries everything a release run needs: where the authoritative version
// lives, which package locations receive it, how the derived lockfile is
// regenerated, and how the change is recorded in version control.
type ReleasePolicy struct {
	Workspace WorkspaceConfig        `yaml:"workspace"`
	Packages  []string               `yaml:"packages"`
	Exclude   []string               `yaml:"exclude,omitempty"`
	Messages  MessagesConfig         `yaml:"messages,omitempty"`
	Guards    GuardsConfig           `yaml:"guards,omitempty"`
	Metadata  map[string]interface{} `yaml:"metadata,omitempty"`
}

// WorkspaceConfig locates the workspace-level version artifacts
type WorkspaceConfig struct {
	ConfigFile  string   `yaml:"config_file"`            // authoritative version source
	LockFile    string   `yaml:"lock_file,omitempty"`    // derived lockfile, staged when present
	LockCommand []string `yaml:"lock_command,omitempty"` // external lock regeneration command
}

// MessagesConfig holds Handlebars templates for the version-control record
type MessagesConfig struct {
	Commit     string `yaml:"commit,omitempty"`     // default "{{version}}"
	Tag        string `yaml:"tag,omitempty"`        // default "v{{version}}"
	Annotation string `yaml:"annotation,omitempty"` // default "Version {{version}}"
}

// GuardsConfig defines execution preconditions
type GuardsConfig struct {
	RequiredBranches      []string `yaml:"required_branches,omitempty"`
	DisallowDirtyWorktree bool     `yaml:"disallow_dirty_worktree"`
}

// Locations returns the ordered package locations minus any that match an
// exclude pattern. Order is preserved; it is part of the run's contract.
func (p *ReleasePolicy) Locations() []string {
	if len(p.Exclude) == 0 {
		return p.Packages
	}
	included := make([]string, 0, len(p.Packages))
	for _, loc := range p.Packages {
		normalized := filepath.ToSlash(loc)
		excluded := false
		for _, pattern := range p.Exclude {
			if ok, err := doublestar.Match(pattern, normalized); err == nil && ok {
				excluded = true
				break
			}
		}
		if !excluded {
			included = append(included, loc)
		}
	}
	return included
}

// PolicyLoader handles loading and validation of release policies
type PolicyLoader struct{}

// NewPolicyLoader creates a new policy loader
func NewPolicyLoader() *PolicyLoader {
	return &PolicyLoader{}
}

// LoadPolicy loads the release policy from the specified path or the default
// location. A missing policy file is not an error: the defaults reproduce the
// workspace layout this tool grew up with (a root package plus platform
// packages under npm/).
func (pl *PolicyLoader) LoadPolicy(policyPath string) (*ReleasePolicy, error) {
	if policyPath == "" {
		policyPath = DefaultPolicyPath
	}

	if _, err := os.Stat(policyPath); os.IsNotExist(err) {
		logger.Debug("Policy file not found, using defaults", logger.String("path", policyPath))
		return DefaultPolicy(), nil
	}

	data, err := os.ReadFile(policyPath) // #nosec G304 - policy path is operator-supplied configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", policyPath, err)
	}

	if err := validatePolicySchema(data); err != nil {
		return nil, fmt.Errorf("policy %s failed validation: %w", policyPath, err)
	}

	var policy ReleasePolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", policyPath, err)
	}

	applyPolicyDefaults(&policy)

	if err := validatePolicy(&policy); err != nil {
		return nil, fmt.Errorf("invalid policy file %s: %w", policyPath, err)
	}

	logger.Debug("Loaded release policy", logger.String("path", policyPath), logger.Int("packages", len(policy.Packages)))
	return &policy, nil
}

// DefaultPolicy returns the policy used when no policy file exists.
func DefaultPolicy() *ReleasePolicy {
	return &ReleasePolicy{
		Workspace: WorkspaceConfig{
			ConfigFile:  "Cargo.toml",
			LockFile:    "Cargo.lock",
			LockCommand: []string{"cargo", "update", "--workspace", "--verbose"},
		},
		Packages: []string{
			".",
			"npm/darwin-x64",
			"npm/linux-arm64-musl",
			"npm/linux-x64-gnu",
			"npm/linux-x64-musl",
			"npm/darwin-arm64",
			"npm/linux-arm64-gnu",
			"npm/win32-x64-msvc",
			"npm/win32-arm64-msvc",
		},
	}
}

// validatePolicySchema checks the raw YAML against the embedded JSON schema.
func validatePolicySchema(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("not valid YAML: %w", err)
	}

	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert policy to JSON for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(policySchema),
		gojsonschema.NewBytesLoader(jsonDoc),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.String())
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

// applyPolicyDefaults fills unset fields from the default policy.
func applyPolicyDefaults(policy *ReleasePolicy) {
	defaults := DefaultPolicy()
	if policy.Workspace.ConfigFile == "" {
		policy.Workspace.ConfigFile = defaults.Workspace.ConfigFile
	}
	if policy.Workspace.LockFile == "" {
		policy.Workspace.LockFile = defaults.Workspace.LockFile
	}
	if len(policy.Workspace.LockCommand) == 0 {
		policy.Workspace.LockCommand = defaults.Workspace.LockCommand
	}
	if len(policy.Packages) == 0 {
		policy.Packages = defaults.Packages
	}
}

// validatePolicy validates the loaded policy beyond what the schema covers.
func validatePolicy(policy *ReleasePolicy) error {
	seen := make(map[string]struct{}, len(policy.Packages))
	for _, loc := range policy.Packages {
		cleaned := filepath.ToSlash(filepath.Clean(loc))
		if strings.HasPrefix(cleaned, "../") || cleaned == ".." {
			return fmt.Errorf("package location escapes the workspace: %s", loc)
		}
		if _, dup := seen[cleaned]; dup {
			return fmt.Errorf("duplicate package location: %s", loc)
		}
		seen[cleaned] = struct{}{}
	}

	for _, pattern := range policy.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range policy.Guards.RequiredBranches {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid branch pattern: %s", pattern)
		}
	}
	return nil
}

// GeneratePolicyFile writes a commented sample policy file.
func (pl *PolicyLoader) GeneratePolicyFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	var content bytes.Buffer
	content.WriteString(`# versync release policy
# Controls how versync propagates a new release version across the workspace.

workspace:
  config_file: Cargo.toml     # authoritative version source (first version = "..." wins)
  lock_file: Cargo.lock       # staged alongside the config when present
  lock_command: ["cargo", "update", "--workspace", "--verbose"]

# Ordered package locations: each holds a package.json and optionally a
# package-lock.json. Order is preserved during a run.
packages:
`)
	for _, loc := range DefaultPolicy().Packages {
		content.WriteString(fmt.Sprintf("  - %q\n", loc))
	}
	content.WriteString(`
# exclude:                    # doublestar patterns matched against locations
#   - "npm/win32-*"

# messages:                   # Handlebars templates for the release record
#   commit: "{{version}}"
#   tag: "v{{version}}"
#   annotation: "Version {{version}}"

guards:
  disallow_dirty_worktree: false
  # required_branches: ["main", "release/*"]
`)

	if err := os.WriteFile(path, content.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write policy file %s: %w", path, err)
	}

	logger.Info("Generated sample policy file", logger.String("path", path))
	return nil
}
