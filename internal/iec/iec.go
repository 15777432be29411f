// Package iec implements the IEC 62443 control-identifier grammar: recognizing
// family tokens like "CR 3.1" or "HDR 2 RE(1)" inside arbitrary text and
// canonicalizing them. Enhancement variants (RE(n)) are distinct tokens and
// are never collapsed into their base identifier.
package iec

import (
	"regexp"
	"strings"
)

// Families are the five control families defined by IEC 62443-4-2.
var Families = []string{"CR", "SAR", "EDR", "HDR", "NDR"}

var (
	tokenRE = regexp.MustCompile(`(?i)\b(CR|SAR|EDR|HDR|NDR)[\s\-_]*(\d+(?:\.\d+)?)(?:\s*R[Ee][\s\-(\[]*(\d+)[\s)\]]*)?\b`)

	// Cells frequently list identifiers joined by natural-language
	// conjunctions and punctuation; the split pass catches tokens the
	// whole-string scan can miss at shared lexical boundaries.
	splitRE = regexp.MustCompile(`(?i)\band\b|[;,/]`)
)

// IsFamily reports whether fam (upper-cased) is one of the five families.
func IsFamily(fam string) bool {
	fam = strings.ToUpper(fam)
	for _, f := range Families {
		if fam == f {
			return true
		}
	}
	return false
}

func canonical(m []string) string {
	fam := strings.ToUpper(m[1])
	num := m[2]
	if m[3] != "" {
		return fam + " " + num + " RE(" + m[3] + ")"
	}
	return fam + " " + num
}

// Normalize returns the canonical form of the first identifier mentioned in s,
// or "" if s contains none.
func Normalize(s string) string {
	m := tokenRE.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return canonical(m)
}

// Family returns the family prefix of a canonical token ("CR 3.1 RE(1)" → "CR").
func Family(token string) string {
	if i := strings.IndexByte(token, ' '); i > 0 {
		return token[:i]
	}
	return token
}

// ExtractAll returns every identifier mentioned in text, canonicalized,
// deduplicated, in first-seen order. Two passes run: a whole-string scan over
// all non-overlapping matches, then a scan of each fragment obtained by
// splitting on "and" and on ";,/". Text with no identifiers yields nil,
// never an error.
func ExtractAll(text string) []string {
	if text == "" {
		return nil
	}
	s := strings.ReplaceAll(text, " ", " ")

	var out []string
	for _, m := range tokenRE.FindAllStringSubmatch(s, -1) {
		out = append(out, canonical(m))
	}
	for _, part := range splitRE.Split(s, -1) {
		if m := tokenRE.FindStringSubmatch(strings.TrimSpace(part)); m != nil {
			out = append(out, canonical(m))
		}
	}

	seen := make(map[string]struct{}, len(out))
	uniq := out[:0]
	for _, tok := range out {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		uniq = append(uniq, tok)
	}
	if len(uniq) == 0 {
		return nil
	}
	return uniq
}
