package unit

import (
	"regexp"
	"strings"
)

// Directives are HTML comments with a reserved payload prefix:
//
//	<!-- mdkit:skip -->            suppress the next unit
//	<!-- mdkit:comment A note -->  attach a translator comment
//
// The i18n and mdbook-xgettext prefixes are accepted as aliases for
// documents written for other tools. Anything that does not match the
// pattern exactly is ordinary HTML, never an error.
var directiveRe = regexp.MustCompile(`(?s)\A<!-{2,}\s*(?:mdkit|i18n|mdbook-xgettext)\s*:\s*([a-z-]+)[ \t]*:?[ \t]*(.*?)\s*-{2,}>`)

type directive struct {
	skip    bool
	comment string
}

// parseDirectives matches an HTML fragment that consists entirely of
// directive comments. Consecutive comment directives coalesce into
// multiple notes on the same unit.
func parseDirectives(html string) ([]directive, bool) {
	rest := strings.TrimSpace(html)
	if rest == "" {
		return nil, false
	}
	var dirs []directive
	for rest != "" {
		m := directiveRe.FindStringSubmatchIndex(rest)
		if m == nil {
			return nil, false
		}
		cmd := rest[m[2]:m[3]]
		payload := rest[m[4]:m[5]]
		switch cmd {
		case "skip":
			if strings.TrimSpace(payload) != "" {
				return nil, false
			}
			dirs = append(dirs, directive{skip: true})
		case "comment":
			dirs = append(dirs, directive{comment: payload})
		default:
			return nil, false
		}
		rest = strings.TrimSpace(rest[m[1]:])
	}
	return dirs, true
}
