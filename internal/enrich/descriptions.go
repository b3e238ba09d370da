package enrich

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/golangsnmp/mibflat/mib"
)

// maxDescriptionLen is the sanity ceiling for a description pulled from
// source text; anything longer is assumed to be a runaway match.
const maxDescriptionLen = 16 * 1024

// maxClauseGap bounds how far the scan looks between a definition keyword
// and its DESCRIPTION clause.
const maxClauseGap = 4096

// typeKeywordAlt matches the macro keyword that opens a definition body.
const typeKeywordAlt = `OBJECT-TYPE|NOTIFICATION-TYPE|OBJECT-IDENTITY|MODULE-IDENTITY|` +
	`OBJECT-GROUP|NOTIFICATION-GROUP|MODULE-COMPLIANCE|TRAP-TYPE|AGENT-CAPABILITIES`

// descriptionTerminators are the tokens that may legally follow a closed
// DESCRIPTION string. A match whose tail starts with anything else ran past
// the definition and is rejected.
var descriptionTerminators = map[string]bool{
	"::=":              true,
	"REFERENCE":        true,
	"INDEX":            true,
	"AUGMENTS":         true,
	"DEFVAL":           true,
	"OBJECTS":          true,
	"VARIABLES":        true,
	"ENTERPRISE":       true,
	"MODULE":           true,
	"MANDATORY-GROUPS": true,
	"REVISION":         true,
}

var (
	nextTokenRe = regexp.MustCompile(`^\s*(::=|[A-Z][A-Z-]*)`)

	// defHeadRe finds every "name KEYWORD" definition head in one scan; the
	// requested name is matched against the capture, so no per-object pattern
	// is ever compiled.
	defHeadRe    = regexp.MustCompile(`\b([A-Za-z][A-Za-z0-9-]*)\s+(?:` + typeKeywordAlt + `)\b`)
	descClauseRe = regexp.MustCompile(`DESCRIPTION\s*"([^"]*)"`)
)

// extractDescription scans source text for the named definition's
// DESCRIPTION clause. The clause must start within maxClauseGap bytes of the
// definition keyword and the quoted text must stay under maxDescriptionLen;
// both ceilings are enforced on the match, not baked into the pattern.
// Returns "" when no bounded, terminator-checked match is found.
func extractDescription(src []byte, name string) string {
	for _, head := range defHeadRe.FindAllSubmatchIndex(src, -1) {
		if !bytes.Equal(src[head[2]:head[3]], []byte(name)) {
			continue
		}

		// Slack covers the clause keyword and quotes themselves.
		window := src[head[1]:]
		if limit := maxClauseGap + maxDescriptionLen + 64; len(window) > limit {
			window = window[:limit]
		}
		loc := descClauseRe.FindSubmatchIndex(window)
		if loc == nil || loc[0] > maxClauseGap {
			return ""
		}
		desc := string(window[loc[2]:loc[3]])
		if len(desc) >= maxDescriptionLen {
			return ""
		}

		tail := window[loc[1]:]
		tok := nextTokenRe.FindSubmatch(tail)
		if tok == nil || !descriptionTerminators[string(tok[1])] {
			return ""
		}

		return normalizeQuoted(desc)
	}
	return ""
}

// normalizeQuoted collapses the leading indentation continuation lines of a
// quoted MIB string carry.
func normalizeQuoted(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// backfillDescriptions re-scans the raw source for each record whose
// compiled description is missing or shorter than what the source carries.
// Compilation loses formatting and occasionally truncates; the source text
// wins when it is more complete.
func (p *Pipeline) backfillDescriptions(ctx context.Context, objs []*mib.Object, src []byte) {
	for _, obj := range objs {
		fromSource := extractDescription(src, obj.Name)
		if len(fromSource) > len(obj.Description) {
			if p.logEnabled(levelTrace) {
				p.logger.LogAttrs(ctx, levelTrace, "description backfilled",
					slog.String("object", obj.Name),
					slog.Int("compiled", len(obj.Description)),
					slog.Int("source", len(fromSource)))
			}
			obj.Description = fromSource
		}
	}
}
