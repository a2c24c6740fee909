package redaction

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

type pattern struct {
	category Category
	regex    *regexp.Regexp
	// group selects the submatch to redact; 0 is the whole match.
	group    int
	priority int
}

var patterns = []pattern{
	{CategoryJWT, regexp.MustCompile(`eyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}`), 0, 30},
	{CategoryBearerToken, regexp.MustCompile(`(?i)bearer\s+([A-Za-z0-9._~+/=-]{16,})`), 1, 20},
	{CategoryPassword, regexp.MustCompile(`(?i)"?password"?\s*[:=]\s*"([^"\s]{1,128})"`), 1, 10},
}

// Redactor scans text for configured secrets and token patterns.
// It is immutable and safe for concurrent use.
type Redactor struct {
	mode     Mode
	secrets  []string
	disabled []Category
}

// New builds a redactor. Empty secrets are ignored; longer secrets are
// matched first.
func New(cfg Config) (*Redactor, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeRedact
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var secrets []string
	for _, s := range cfg.Secrets {
		if s != "" && !slices.Contains(secrets, s) {
			secrets = append(secrets, s)
		}
	}
	sort.Slice(secrets, func(i, j int) bool { return len(secrets[i]) > len(secrets[j]) })
	return &Redactor{mode: cfg.Mode, secrets: secrets, disabled: cfg.DisabledCategories}, nil
}

// Redact returns input with findings replaced by placeholders when the
// mode is ModeRedact, and the findings in input order.
func (r *Redactor) Redact(input string) (string, []Finding) {
	if r == nil || r.mode == ModeOff || input == "" {
		return input, nil
	}
	matches := deduplicateMatches(r.scan(input))
	if len(matches) == 0 {
		return input, nil
	}
	findings := make([]Finding, len(matches))
	for i, m := range matches {
		findings[i] = Finding{
			Category: m.category,
			Redacted: generatePlaceholder(m.category, input[m.start:m.end]),
			Start:    m.start,
			End:      m.end,
		}
	}
	if r.mode != ModeRedact {
		return input, findings
	}
	return applyRedactions(input, findings), findings
}

// String redacts input and drops the findings. Handy as a func(string) string.
func (r *Redactor) String(input string) string {
	out, _ := r.Redact(input)
	return out
}

// match represents an internal match during scanning.
type match struct {
	category Category
	start    int
	end      int
	priority int
}

func (r *Redactor) scan(input string) []match {
	var all []match
	for _, s := range r.secrets {
		for offset := 0; ; {
			i := strings.Index(input[offset:], s)
			if i < 0 {
				break
			}
			start := offset + i
			all = append(all, match{category: CategoryCredential, start: start, end: start + len(s), priority: 100})
			offset = start + len(s)
		}
	}
	for _, p := range patterns {
		if slices.Contains(r.disabled, p.category) {
			continue
		}
		for _, loc := range p.regex.FindAllStringSubmatchIndex(input, -1) {
			start, end := loc[2*p.group], loc[2*p.group+1]
			if start < 0 {
				continue
			}
			all = append(all, match{category: p.category, start: start, end: end, priority: p.priority})
		}
	}
	return all
}

// deduplicateMatches removes overlapping matches, preferring higher priority.
func deduplicateMatches(matches []match) []match {
	if len(matches) == 0 {
		return matches
	}

	// Higher priority matches get first pick.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].priority != matches[j].priority {
			return matches[i].priority > matches[j].priority
		}
		return matches[i].start < matches[j].start
	})

	var result []match
	for _, m := range matches {
		overlaps := false
		for _, kept := range result {
			if m.start < kept.end && kept.start < m.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			result = append(result, m)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].start < result[j].start
	})
	return result
}

// generatePlaceholder creates a redaction placeholder for a match.
// Format: [REDACTED:CATEGORY:hash8]
func generatePlaceholder(cat Category, content string) string {
	hash := sha256.Sum256([]byte(string(cat) + ":" + content))
	return fmt.Sprintf("[REDACTED:%s:%s]", cat, hex.EncodeToString(hash[:4]))
}

// applyRedactions replaces matched content with placeholders, working from
// the end so earlier offsets stay valid.
func applyRedactions(input string, findings []Finding) string {
	sorted := make([]Finding, len(findings))
	copy(sorted, findings)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start > sorted[j].Start
	})

	result := input
	for _, f := range sorted {
		if f.Start >= 0 && f.End <= len(result) && f.Start < f.End {
			result = result[:f.Start] + f.Redacted + result[f.End:]
		}
	}
	return result
}
