package propagation

import (
	"fmt"

	"github.com/aymerick/raymond"
)

// Default message templates. Rendered with {{version}} they produce the
// release record format downstream automation keys on: commit message is the
// bare version, tag is v-prefixed, annotation reads "Version <version>".
const (
	defaultCommitTemplate     = "{{version}}"
	defaultTagTemplate        = "v{{version}}"
	defaultAnnotationTemplate = "Version {{version}}"
)

// ReleaseMessages holds the rendered version-control strings for one release.
type ReleaseMessages struct {
	Commit     string
	Tag        string
	Annotation string
}

// RenderMessages renders the policy's message templates for the given
// version. Empty templates fall back to the defaults.
func RenderMessages(cfg MessagesConfig, version string) (*ReleaseMessages, error) {
	ctx := map[string]string{"version": version}

	commit, err := renderTemplate(cfg.Commit, defaultCommitTemplate, ctx)
	if err != nil {
		return nil, fmt.Errorf("commit template: %w", err)
	}
	tag, err := renderTemplate(cfg.Tag, defaultTagTemplate, ctx)
	if err != nil {
		return nil, fmt.Errorf("tag template: %w", err)
	}
	annotation, err := renderTemplate(cfg.Annotation, defaultAnnotationTemplate, ctx)
	if err != nil {
		return nil, fmt.Errorf("annotation template: %w", err)
	}

	return &ReleaseMessages{Commit: commit, Tag: tag, Annotation: annotation}, nil
}

func renderTemplate(tpl, fallback string, ctx map[string]string) (string, error) {
	if tpl == "" {
		tpl = fallback
	}
	return raymond.Render(tpl, ctx)
}
