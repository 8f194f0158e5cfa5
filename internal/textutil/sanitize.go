// Package textutil provides filename sanitization and title similarity
// helpers shared by the planner, aggregator, and resolver.
package textutil

import "strings"

// fileNameReplacer replaces characters that are illegal or problematic over
// common file-sharing protocols with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	": ", " - ",
	":", "-",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a name. The
// transformation is deterministic and idempotent: sanitizing an already
// sanitized name is a no-op.
func SanitizeFileName(name string) string {
	name = fileNameReplacer.Replace(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 {
			continue
		}
		b.WriteRune(r)
	}
	name = b.String()
	// Trailing dots and spaces are rejected by SMB/Windows clients.
	name = strings.TrimRight(name, ". ")
	return strings.TrimSpace(name)
}
