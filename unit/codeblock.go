package unit

import (
	"strings"

	"github.com/minios-linux/mdkit/event"
)

// codeLine is one source line of a code block.
type codeLine struct {
	text string
	span event.Span
	line int
}

// quoteRule describes one string literal delimiter of a language.
type quoteRule struct {
	delim     string
	escape    bool
	multiline bool
}

// syntax is a minimal lexical description: just enough to find string
// literals and comments. Everything else in the block is skeleton.
type syntax struct {
	lineComments  []string
	blockComments [][2]string
	quotes        []quoteRule
}

// syntaxes maps code fence info strings to scanners. Languages not
// listed here are opaque: their blocks yield no units.
var syntaxes = map[string]*syntax{}

func init() {
	cFamily := &syntax{
		lineComments:  []string{"//"},
		blockComments: [][2]string{{"/*", "*/"}},
		quotes: []quoteRule{
			{delim: `"`, escape: true},
			{delim: `'`, escape: true},
		},
	}
	for _, l := range []string{"c", "cpp", "c++", "java", "js", "javascript", "jsx", "ts", "typescript", "cs", "csharp", "kotlin", "swift", "scala", "dart"} {
		syntaxes[l] = cFamily
	}

	syntaxes["go"] = &syntax{
		lineComments:  []string{"//"},
		blockComments: [][2]string{{"/*", "*/"}},
		quotes: []quoteRule{
			{delim: "`", multiline: true},
			{delim: `"`, escape: true},
			{delim: `'`, escape: true},
		},
	}

	syntaxes["rust"] = &syntax{
		lineComments:  []string{"//"},
		blockComments: [][2]string{{"/*", "*/"}},
		quotes: []quoteRule{
			{delim: `"`, escape: true, multiline: true},
		},
	}

	hashFamily := &syntax{
		lineComments: []string{"#"},
		quotes: []quoteRule{
			{delim: `"`, escape: true},
			{delim: `'`},
		},
	}
	for _, l := range []string{"sh", "bash", "shell", "zsh", "ruby", "rb", "yaml", "yml", "toml"} {
		syntaxes[l] = hashFamily
	}

	syntaxes["python"] = &syntax{
		lineComments: []string{"#"},
		quotes: []quoteRule{
			{delim: `"""`, escape: true, multiline: true},
			{delim: `'''`, escape: true, multiline: true},
			{delim: `"`, escape: true},
			{delim: `'`, escape: true},
		},
	}
	syntaxes["py"] = syntaxes["python"]
}

// scanCode extracts string literals and comments from a code block.
// The delimiters themselves stay in the skeleton: only the content
// between them becomes translatable.
func scanCode(lang string, lines []codeLine) []Unit {
	syn := syntaxes[normalizeLang(lang)]
	if syn == nil || len(lines) == 0 {
		return nil
	}

	texts := make([]string, len(lines))
	starts := make([]int, len(lines))
	off := 0
	for i, l := range lines {
		texts[i] = l.text
		starts[i] = off
		off += len(l.text) + 1
	}
	joined := strings.Join(texts, "\n")

	var units []Unit
	for _, tok := range scanTokens(joined, syn) {
		start, end := trimToken(joined, tok.start, tok.end)
		if start >= end {
			continue
		}
		u := Unit{
			Key:    joined[start:end],
			Source: joined[start:end],
			Kind:   CodeText,
		}
		for i := range lines {
			lineStart := starts[i]
			lineEnd := starts[i] + len(texts[i])
			s := max(start, lineStart)
			e := min(end, lineEnd)
			if e <= s {
				continue
			}
			if !lines[i].span.Valid() {
				continue
			}
			u.Spans = append(u.Spans, event.Span{
				Start: lines[i].span.Start + (s - lineStart),
				End:   lines[i].span.Start + (e - lineStart),
			})
			if u.Line == 0 {
				u.Line = lines[i].line
			}
		}
		if len(u.Spans) == 0 {
			continue
		}
		units = append(units, u)
	}
	return units
}

type token struct {
	start int
	end   int
}

func scanTokens(src string, syn *syntax) []token {
	var toks []token
	i := 0
	for i < len(src) {
		if p := matchPrefix(src, i, syn.lineComments); p != "" {
			start := i + len(p)
			end := strings.IndexByte(src[start:], '\n')
			if end < 0 {
				end = len(src)
			} else {
				end += start
			}
			toks = append(toks, token{start, end})
			i = end
			continue
		}
		if open, close := matchBlock(src, i, syn.blockComments); open != "" {
			start := i + len(open)
			end := strings.Index(src[start:], close)
			if end < 0 {
				end = len(src)
				i = end
			} else {
				end += start
				i = end + len(close)
			}
			toks = append(toks, token{start, end})
			continue
		}
		if q := matchQuote(src, i, syn.quotes); q != nil {
			start := i + len(q.delim)
			end, next := scanQuoted(src, start, q)
			if end > start {
				toks = append(toks, token{start, end})
			}
			i = next
			continue
		}
		i++
	}
	return toks
}

func scanQuoted(src string, start int, q *quoteRule) (end, next int) {
	j := start
	for j < len(src) {
		if q.escape && src[j] == '\\' && j+1 < len(src) {
			j += 2
			continue
		}
		if !q.multiline && src[j] == '\n' {
			return j, j
		}
		if strings.HasPrefix(src[j:], q.delim) {
			return j, j + len(q.delim)
		}
		j++
	}
	return j, j
}

func matchPrefix(src string, i int, prefixes []string) string {
	for _, p := range prefixes {
		if strings.HasPrefix(src[i:], p) {
			return p
		}
	}
	return ""
}

func matchBlock(src string, i int, blocks [][2]string) (open, close string) {
	for _, b := range blocks {
		if strings.HasPrefix(src[i:], b[0]) {
			return b[0], b[1]
		}
	}
	return "", ""
}

func matchQuote(src string, i int, quotes []quoteRule) *quoteRule {
	for k := range quotes {
		if strings.HasPrefix(src[i:], quotes[k].delim) {
			return &quotes[k]
		}
	}
	return nil
}

func trimToken(src string, start, end int) (int, int) {
	for start < end {
		switch src[start] {
		case ' ', '\t', '\r', '\n':
			start++
			continue
		}
		break
	}
	for end > start {
		switch src[end-1] {
		case ' ', '\t', '\r', '\n':
			end--
			continue
		}
		break
	}
	return start, end
}

// normalizeLang reduces a fence info string like "go,editable" or
// "rust ignore" to its language tag.
func normalizeLang(info string) string {
	info = strings.TrimSpace(strings.ToLower(info))
	if idx := strings.IndexAny(info, ", \t"); idx >= 0 {
		info = info[:idx]
	}
	return info
}
