package normalize

import (
	"regexp"
	"strings"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	// Template descriptions open with placeholder tokens, threat descriptions
	// with the concrete asset names. Both forms end at the first colon.
	templatePrefix = regexp.MustCompile(`(?i)^\s*\{source\.Name\}\s+to\s+\{target\.Name\}\s*:\s*`)
	threatPrefix   = regexp.MustCompile(`(?i)^\s*[^:]+?\s+to\s+[^:]+?\s*:\s*`)

	placeholder = regexp.MustCompile(`\{[^}]+\}`)

	titleQualifier = regexp.MustCompile(`(?i)^\s*(?:authenticated\s+|unauthenticated\s+)?`)

	sourceTarget = regexp.MustCompile(`(?i)^\s*([^:]+?)\s+to\s+([^:]+?)\s*:`)
)

// Text collapses free text to its canonical comparison form: lower-cased,
// every non-alphanumeric run replaced by a single space, ends trimmed.
// Idempotent: Text(Text(s)) == Text(s).
func Text(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// DescKeyFromTemplate derives the description key for a candidate-rule
// template: the placeholder-form "{source.Name} to {target.Name}:" prefix is
// stripped, any remaining placeholder markers are removed, and the rest is
// collapsed with Text.
func DescKeyFromTemplate(desc string) string {
	t := templatePrefix.ReplaceAllString(desc, "")
	t = placeholder.ReplaceAllString(t, " ")
	return Text(t)
}

// DescKeyFromThreat derives the description key for a threat row. The literal
// "<Source> to <Target>:" prefix is stripped, and in-body mentions of the
// parsed source/target names are removed so the key lines up with the
// placeholder-agnostic template key.
func DescKeyFromThreat(desc, src, tgt string) string {
	t := threatPrefix.ReplaceAllString(desc, "")
	for _, name := range []string{src, tgt} {
		if name == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		if err != nil {
			continue
		}
		t = re.ReplaceAllString(t, " ")
	}
	return Text(t)
}

// TitleKeyFromThreat derives the diagnostic-only title key for a threat row.
// The interaction source name and a leading authentication qualifier are
// stripped before collapsing. Title keys never drive the match.
func TitleKeyFromThreat(title, source string) string {
	t := title
	if source != "" {
		t = strings.Replace(t, source, "", 1)
	}
	t = titleQualifier.ReplaceAllString(t, "")
	return Text(t)
}

// TitleKeyFromTemplate derives the diagnostic-only title key for a
// candidate-rule short title.
func TitleKeyFromTemplate(shortTitle string) string {
	return Text(shortTitle)
}

// ParseSourceTarget extracts the interaction topology from a threat
// description of the form "<Source> to <Target>: <narrative>". Descriptions
// without that shape yield empty strings and ok=false.
func ParseSourceTarget(desc string) (src, tgt string, ok bool) {
	m := sourceTarget.FindStringSubmatch(desc)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}
