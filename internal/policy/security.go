package policy

import (
	"path/filepath"
	"regexp"
	"strings"
)

// SecurityConfig bounds which generated file paths are allowed to reach the
// filesystem and which substrings in remote-sourced text must be redacted
// before the text is ever logged or handed to a stage worker.
type SecurityConfig struct {
	AllowedExtensions []string

	// InjectionMarkers are literal substrings (case-insensitive) that flag
	// a likely prompt-injection attempt embedded in remote content.
	InjectionMarkers []string
}

// DefaultSecurityConfig matches the teacher's tools/github allow-list
// pattern: a conservative extension list covering the languages the
// generate/validate stages are expected to touch, plus the marker set named
// in §4.2 and §9.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		AllowedExtensions: []string{
			".go", ".py", ".js", ".ts", ".tsx", ".jsx", ".java", ".rb", ".rs",
			".md", ".txt", ".json", ".yaml", ".yml", ".toml", ".mod", ".sum",
		},
		InjectionMarkers: []string{
			"ignore previous instructions",
			"disregard all prior",
			"system prompt:",
			"you are now",
		},
	}
}

const redactedPlaceholder = "[FILTERED]"

// SecurityPolicy enforces SecurityConfig, per §4.2.
type SecurityPolicy struct {
	cfg         SecurityConfig
	allowed     map[string]bool
	markerRegex *regexp.Regexp
}

// NewSecurityPolicy builds a SecurityPolicy from cfg, precompiling the
// marker-matching regex once rather than per call.
func NewSecurityPolicy(cfg SecurityConfig) *SecurityPolicy {
	p := &SecurityPolicy{
		cfg:     cfg,
		allowed: make(map[string]bool, len(cfg.AllowedExtensions)),
	}
	for _, ext := range cfg.AllowedExtensions {
		p.allowed[strings.ToLower(ext)] = true
	}

	if len(cfg.InjectionMarkers) > 0 {
		escaped := make([]string, len(cfg.InjectionMarkers))
		for i, m := range cfg.InjectionMarkers {
			escaped[i] = regexp.QuoteMeta(m)
		}
		p.markerRegex = regexp.MustCompile("(?i)(" + strings.Join(escaped, "|") + ")")
	}

	return p
}

// IsFileAllowed reports whether path's extension is in the allow-list.
// Paths without an extension are rejected, matching the teacher's
// deny-by-default posture.
func (p *SecurityPolicy) IsFileAllowed(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext != "" && p.allowed[ext]
}

// Sanitize replaces every occurrence of a configured injection marker in
// text with a fixed placeholder, preserving the rest of the text verbatim.
func (p *SecurityPolicy) Sanitize(text string) string {
	if p.markerRegex == nil {
		return text
	}
	return p.markerRegex.ReplaceAllString(text, redactedPlaceholder)
}
