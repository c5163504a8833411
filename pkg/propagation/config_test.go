package propagation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractWorkspaceVersion(t *testing.T) {
	content := `[package]
name = "demo"
version = "0.0.13"

[dependencies]
serde = { version = "1.0" }
`
	version, err := ExtractWorkspaceVersion(content)
	if err != nil {
		t.Fatalf("ExtractWorkspaceVersion failed: %v", err)
	}
	if version != "0.0.13" {
		t.Errorf("Expected version '0.0.13', got '%s'", version)
	}
}

func TestExtractWorkspaceVersion_NotFound(t *testing.T) {
	_, err := ExtractWorkspaceVersion(`name = "demo"`)
	if !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("Expected ErrVersionNotFound, got %v", err)
	}
}

func TestExtractWorkspaceVersion_FirstMatchWins(t *testing.T) {
	content := `version = "1.0.0"
[sub]
version = "9.9.9"
`
	version, err := ExtractWorkspaceVersion(content)
	if err != nil {
		t.Fatalf("ExtractWorkspaceVersion failed: %v", err)
	}
	if version != "1.0.0" {
		t.Errorf("Expected first match '1.0.0', got '%s'", version)
	}
}

func TestRewriteWorkspaceConfig(t *testing.T) {
	content := `[workspace.package]
version = "1.2.3"

[package]
name = "demo"
version = "1.2.3"
edition = "2021"
`
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "Cargo.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if err := RewriteWorkspaceConfig(path, "1.3.0"); err != nil {
		t.Fatalf("RewriteWorkspaceConfig failed: %v", err)
	}

	updated, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read updated file: %v", err)
	}

	if strings.Count(string(updated), `version = "1.3.0"`) != 2 {
		t.Errorf("Expected both version assignments updated, got:\n%s", updated)
	}
	if !strings.Contains(string(updated), `edition = "2021"`) {
		t.Error("Unrelated field was not preserved")
	}
}

func TestRewriteWorkspaceConfig_LeavesSameLiteralInOtherFields(t *testing.T) {
	content := "version = \"1.2.3\"\nother = \"1.2.3\"\n"
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "Cargo.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if err := RewriteWorkspaceConfig(path, "1.3.0"); err != nil {
		t.Fatalf("RewriteWorkspaceConfig failed: %v", err)
	}

	updated, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read updated file: %v", err)
	}
	if string(updated) != "version = \"1.3.0\"\nother = \"1.2.3\"\n" {
		t.Errorf("Non-version occurrence of the literal was touched:\n%s", updated)
	}
}

func TestRewriteWorkspaceConfig_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "Cargo.toml")
	if err := os.WriteFile(path, []byte("version = \"1.2.3\"\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if err := RewriteWorkspaceConfig(path, "2.0.0"); err != nil {
		t.Fatalf("First rewrite failed: %v", err)
	}
	first, _ := os.ReadFile(path)

	if err := RewriteWorkspaceConfig(path, "2.0.0"); err != nil {
		t.Fatalf("Second rewrite failed: %v", err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Errorf("Rewrite is not idempotent: %q vs %q", first, second)
	}
}

func TestRewriteWorkspaceConfig_MissingFile(t *testing.T) {
	err := RewriteWorkspaceConfig(filepath.Join(t.TempDir(), "Cargo.toml"), "1.0.0")
	if err == nil {
		t.Fatal("Expected error for missing config file, got nil")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestRewriteWorkspaceConfig_NoExtractableVersion(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "Cargo.toml")
	original := "name = \"demo\"\nother = \"keep\"\n"
	if err := os.WriteFile(path, []byte(original), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	err := RewriteWorkspaceConfig(path, "1.0.0")
	if !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("Expected ErrVersionNotFound, got %v", err)
	}

	// The file must be untouched when the precondition fails
	data, _ := os.ReadFile(path)
	if string(data) != original {
		t.Errorf("File modified despite failed precondition:\n%s", data)
	}
}

func TestReadWorkspaceVersion(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "package section",
			content: "[package]\nname = \"demo\"\nversion = \"0.0.13\"\n",
			want:    "0.0.13",
		},
		{
			name:    "workspace package section",
			content: "[workspace.package]\nversion = \"2.1.0\"\n",
			want:    "2.1.0",
		},
		{
			name:    "top level fallback",
			content: "version = \"3.0.0\"\n",
			want:    "3.0.0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			path := filepath.Join(tmpDir, "Cargo.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}

			got, err := ReadWorkspaceVersion(path)
			if err != nil {
				t.Fatalf("ReadWorkspaceVersion failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}
