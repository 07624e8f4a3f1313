package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse reads a PO/POT catalog from a reader.
//
// Parsing is permissive about comment content but strict about the
// message syntax: malformed keywords and unterminated strings abort
// with the offending line number. Duplicate keys with identical
// translations are merged (references unioned); duplicate keys with
// conflicting translations are an error, never silent data loss.
func Parse(r io.Reader) (*File, error) {
	f := NewFile()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	byKey := make(map[string]*Entry)

	var current *Entry
	var lastField string // tracks the last msgid/msgstr/etc. field for multiline strings
	lineNum := 0
	entryLine := 0

	flush := func() error {
		if current == nil {
			return nil
		}
		defer func() {
			current = nil
			lastField = ""
		}()
		if current.MsgID == "" && !current.Obsolete {
			f.Header = current
			return nil
		}
		if current.Obsolete {
			f.Entries = append(f.Entries, current)
			return nil
		}
		if prev, ok := byKey[current.Key()]; ok {
			if err := mergeDuplicate(prev, current, entryLine); err != nil {
				return err
			}
			return nil
		}
		byKey[current.Key()] = current
		f.Entries = append(f.Entries, current)
		return nil
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Empty line separates entries
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}

		if current == nil {
			current = &Entry{
				MsgStrPlural: make(map[int]string),
			}
			entryLine = lineNum
		}

		// Handle obsolete entries
		if strings.HasPrefix(line, "#~ ") {
			current.Obsolete = true
			line = line[3:]
		}

		// Comment lines
		if strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "#~") {
			if strings.HasPrefix(line, "#:") {
				refs := strings.TrimSpace(line[2:])
				for _, ref := range strings.Fields(refs) {
					current.AddReference(ref)
				}
			} else if strings.HasPrefix(line, "#,") {
				flagStr := strings.TrimSpace(line[2:])
				for _, flag := range strings.Split(flagStr, ",") {
					flag = strings.TrimSpace(flag)
					if flag != "" {
						current.Flags = append(current.Flags, flag)
					}
				}
			} else if strings.HasPrefix(line, "#.") {
				current.ExtractedComments = append(current.ExtractedComments, strings.TrimSpace(line[2:]))
			} else if strings.HasPrefix(line, "#|") {
				prev := strings.TrimSpace(line[2:])
				if strings.HasPrefix(prev, "msgid ") {
					val, err := parseQuoted(strings.TrimPrefix(prev, "msgid "), lineNum)
					if err != nil {
						return nil, err
					}
					current.PreviousMsgID = val
				}
			} else {
				comment := line[1:]
				if strings.HasPrefix(comment, " ") {
					comment = comment[1:]
				}
				current.TranslatorComments = append(current.TranslatorComments, comment)
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "msgctxt "):
			val, err := parseQuoted(strings.TrimPrefix(line, "msgctxt "), lineNum)
			if err != nil {
				return nil, err
			}
			current.MsgCtxt = val
			lastField = "msgctxt"

		case strings.HasPrefix(line, "msgid_plural "):
			val, err := parseQuoted(strings.TrimPrefix(line, "msgid_plural "), lineNum)
			if err != nil {
				return nil, err
			}
			current.MsgIDPlural = val
			lastField = "msgid_plural"

		case strings.HasPrefix(line, "msgid "):
			val, err := parseQuoted(strings.TrimPrefix(line, "msgid "), lineNum)
			if err != nil {
				return nil, err
			}
			current.MsgID = val
			lastField = "msgid"

		case strings.HasPrefix(line, "msgstr["):
			var idx int
			if n, err := fmt.Sscanf(line, "msgstr[%d]", &idx); err != nil || n != 1 {
				return nil, fmt.Errorf("line %d: invalid msgstr index: %s", lineNum, line)
			}
			bracketEnd := strings.Index(line, "] ")
			if bracketEnd < 0 {
				return nil, fmt.Errorf("line %d: invalid msgstr format: %s", lineNum, line)
			}
			val, err := parseQuoted(line[bracketEnd+2:], lineNum)
			if err != nil {
				return nil, err
			}
			current.MsgStrPlural[idx] = val
			lastField = fmt.Sprintf("msgstr[%d]", idx)

		case strings.HasPrefix(line, "msgstr "):
			val, err := parseQuoted(strings.TrimPrefix(line, "msgstr "), lineNum)
			if err != nil {
				return nil, err
			}
			current.MsgStr = val
			lastField = "msgstr"

		case strings.HasPrefix(line, "\""):
			val, err := parseQuoted(line, lineNum)
			if err != nil {
				return nil, err
			}
			switch {
			case lastField == "msgctxt":
				current.MsgCtxt += val
			case lastField == "msgid":
				current.MsgID += val
			case lastField == "msgid_plural":
				current.MsgIDPlural += val
			case lastField == "msgstr":
				current.MsgStr += val
			case strings.HasPrefix(lastField, "msgstr["):
				var idx int
				fmt.Sscanf(lastField, "msgstr[%d]", &idx)
				current.MsgStrPlural[idx] += val
			default:
				return nil, fmt.Errorf("line %d: continuation string without a field", lineNum)
			}

		default:
			return nil, fmt.Errorf("line %d: unexpected input %q", lineNum, line)
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PO file: %w", err)
	}

	return f, nil
}

// ParseFile reads a PO/POT catalog from disk.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	parsed, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return parsed, nil
}

// mergeDuplicate folds a repeated key into its first occurrence.
func mergeDuplicate(prev, dup *Entry, line int) error {
	if !sameTranslation(prev, dup) {
		return fmt.Errorf("line %d: duplicate message %q with conflicting translation", line, dup.MsgID)
	}
	for _, ref := range dup.References {
		prev.AddReference(ref)
	}
	for _, c := range dup.ExtractedComments {
		if !containsString(prev.ExtractedComments, c) {
			prev.ExtractedComments = append(prev.ExtractedComments, c)
		}
	}
	for _, fl := range dup.Flags {
		if !prev.HasFlag(fl) {
			prev.Flags = append(prev.Flags, fl)
		}
	}
	return nil
}

func sameTranslation(a, b *Entry) bool {
	if a.MsgStr != b.MsgStr || a.MsgIDPlural != b.MsgIDPlural {
		return false
	}
	if len(a.MsgStrPlural) != len(b.MsgStrPlural) {
		return false
	}
	for k, v := range a.MsgStrPlural {
		if b.MsgStrPlural[k] != v {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// parseQuoted unwraps one PO quoted string, rejecting unterminated input.
func parseQuoted(s string, lineNum int) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' {
		return "", fmt.Errorf("line %d: unterminated string %q", lineNum, s)
	}
	closing := -1
	for i := 1; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '"' {
			closing = i
			break
		}
	}
	if closing != len(s)-1 {
		return "", fmt.Errorf("line %d: unterminated string %q", lineNum, s)
	}
	s = s[1 : len(s)-1]

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				result.WriteByte('\n')
				i++
			case 't':
				result.WriteByte('\t')
				i++
			case '\\':
				result.WriteByte('\\')
				i++
			case '"':
				result.WriteByte('"')
				i++
			default:
				result.WriteByte(s[i])
			}
		} else {
			result.WriteByte(s[i])
		}
	}
	return result.String(), nil
}
