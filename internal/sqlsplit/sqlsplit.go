// Package sqlsplit splits a multi-statement SQL script into individual
// statements. It is quote- and comment-aware: semicolons inside string
// literals, quoted identifiers, PostgreSQL dollar-quoted bodies, line
// comments, and (nested) block comments are never treated as statement
// separators.
package sqlsplit

import "strings"

type state int

const (
	stateNormal state = iota
	stateSingleQuoted
	stateDoubleQuoted
	stateDollarQuoted
	stateLineComment
	stateBlockComment
)

// Split breaks sql into trimmed statements, in order, dropping any statement
// that consists solely of comments once comments are stripped. Operates on
// UTF-8 byte strings; multibyte content inside quotes or identifiers passes
// through unmodified since the scanner only ever branches on ASCII
// delimiters ('\'', '"', '-', '/', '$', ';').
func Split(sql string) []string {
	var statements []string
	var current strings.Builder

	st := stateNormal
	blockDepth := 0
	dollarTag := ""

	runes := []rune(sql)
	n := len(runes)

	flush := func() {
		trimmed := strings.TrimSpace(current.String())
		if trimmed != "" {
			statements = append(statements, trimmed)
		}
		current.Reset()
	}

	i := 0
	for i < n {
		c := runes[i]

		switch st {
		case stateSingleQuoted:
			if c == '\'' {
				if i+1 < n && runes[i+1] == '\'' {
					current.WriteRune('\'')
					current.WriteRune('\'')
					i += 2
					continue
				}
				st = stateNormal
			}
			current.WriteRune(c)
			i++

		case stateDoubleQuoted:
			if c == '"' {
				if i+1 < n && runes[i+1] == '"' {
					current.WriteRune('"')
					current.WriteRune('"')
					i += 2
					continue
				}
				st = stateNormal
			}
			current.WriteRune(c)
			i++

		case stateLineComment:
			current.WriteRune(c)
			if c == '\n' {
				st = stateNormal
			}
			i++

		case stateBlockComment:
			if c == '/' && i+1 < n && runes[i+1] == '*' {
				current.WriteString("/*")
				blockDepth++
				i += 2
				continue
			}
			if c == '*' && i+1 < n && runes[i+1] == '/' {
				current.WriteString("*/")
				blockDepth--
				i += 2
				if blockDepth == 0 {
					st = stateNormal
				}
				continue
			}
			current.WriteRune(c)
			i++

		case stateDollarQuoted:
			if c == '$' && hasPrefixAt(runes, i, dollarTag) {
				current.WriteString(dollarTag)
				i += len([]rune(dollarTag))
				st = stateNormal
				dollarTag = ""
				continue
			}
			current.WriteRune(c)
			i++

		default: // stateNormal
			switch {
			case c == '\'':
				st = stateSingleQuoted
				current.WriteRune(c)
				i++
			case c == '"':
				st = stateDoubleQuoted
				current.WriteRune(c)
				i++
			case c == '-' && i+1 < n && runes[i+1] == '-':
				st = stateLineComment
				current.WriteString("--")
				i += 2
			case c == '/' && i+1 < n && runes[i+1] == '*':
				st = stateBlockComment
				blockDepth = 1
				current.WriteString("/*")
				i += 2
			case c == '$':
				if tag, ok := dollarTagAt(runes, i); ok {
					st = stateDollarQuoted
					dollarTag = tag
					current.WriteString(tag)
					i += len([]rune(tag))
				} else {
					current.WriteRune(c)
					i++
				}
			case c == ';':
				flush()
				i++
			default:
				current.WriteRune(c)
				i++
			}
		}
	}

	flush()

	result := statements[:0]
	for _, s := range statements {
		if !isCommentOnly(s) {
			result = append(result, s)
		}
	}
	return result
}

// dollarTagAt checks whether runes[i] ('$') begins a `$tag$` delimiter whose
// tag matches [A-Za-z0-9_]*, returning the full delimiter (including both
// dollar signs) if so.
func dollarTagAt(runes []rune, i int) (string, bool) {
	j := i + 1
	for j < len(runes) && runes[j] != '$' {
		if !isTagRune(runes[j]) {
			return "", false
		}
		j++
	}
	if j >= len(runes) {
		return "", false
	}
	return string(runes[i : j+1]), true
}

func isTagRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

func hasPrefixAt(runes []rune, i int, prefix string) bool {
	p := []rune(prefix)
	if i+len(p) > len(runes) {
		return false
	}
	for k, r := range p {
		if runes[i+k] != r {
			return false
		}
	}
	return true
}

// isCommentOnly reports whether s, once every leading line/block comment is
// stripped, has no SQL content left. An unterminated block comment consumes
// the remainder of s and counts as comment-only.
func isCommentOnly(s string) bool {
	remaining := strings.TrimSpace(s)
	for {
		if remaining == "" {
			return true
		}
		switch {
		case strings.HasPrefix(remaining, "--"):
			if idx := strings.IndexByte(remaining, '\n'); idx >= 0 {
				remaining = strings.TrimSpace(remaining[idx+1:])
			} else {
				return true
			}
		case strings.HasPrefix(remaining, "/*"):
			runes := []rune(remaining)
			depth := 1
			i := 2
			for i < len(runes) && depth > 0 {
				switch {
				case runes[i] == '/' && i+1 < len(runes) && runes[i+1] == '*':
					depth++
					i += 2
				case runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/':
					depth--
					i += 2
				default:
					i++
				}
			}
			if depth > 0 {
				return true
			}
			remaining = strings.TrimSpace(string(runes[i:]))
		default:
			return false
		}
	}
}
