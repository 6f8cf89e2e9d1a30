package serialization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

var textEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", "", `"`, `\"`)

// EscapeText escapes a label for the diagram format. Backslash, newline and
// double quote are backslash escaped, CR is dropped and every character above
// ASCII becomes a \uXXXX escape.
func EscapeText(text string) string {
	return asciiOnly(textEscaper.Replace(text))
}

// asciiOnly replaces every rune above 127 with \uXXXX, using a UTF-16
// surrogate pair for runes outside the basic multilingual plane.
func asciiOnly(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 16)
	for _, r := range s {
		switch {
		case r < utf8.RuneSelf:
			b.WriteRune(r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, r1, r2)
		default:
			fmt.Fprintf(&b, `\u%04x`, r)
		}
	}
	return b.String()
}

// UnescapeText reverses EscapeText. Unknown escapes are kept verbatim.
func UnescapeText(text string) string {
	if !strings.Contains(text, `\`) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '\\' || i+1 >= len(text) {
			b.WriteByte(c)
			continue
		}
		switch text[i+1] {
		case '\\':
			b.WriteByte('\\')
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case '"':
			b.WriteByte('"')
			i++
		case 'u':
			r, n := decodeUnicodeEscape(text[i:])
			if n == 0 {
				b.WriteByte(c)
				continue
			}
			b.WriteRune(r)
			i += n - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// decodeUnicodeEscape decodes \uXXXX, or a surrogate pair of two escapes, at
// the start of s. It returns the rune and the number of bytes consumed, or 0
// when s does not start with a valid escape.
func decodeUnicodeEscape(s string) (rune, int) {
	hex := func(s string) (rune, bool) {
		if len(s) < 6 || s[0] != '\\' || s[1] != 'u' {
			return 0, false
		}
		v, err := strconv.ParseUint(s[2:6], 16, 32)
		if err != nil {
			return 0, false
		}
		return rune(v), true
	}

	r1, ok := hex(s)
	if !ok {
		return 0, 0
	}
	if utf16.IsSurrogate(r1) {
		if r2, ok := hex(s[6:]); ok {
			if r := utf16.DecodeRune(r1, r2); r != utf8.RuneError {
				return r, 12
			}
		}
	}
	return r1, 6
}

// marshalASCII encodes v as compact JSON without HTML escaping and with every
// non-ASCII character written as a \u escape.
func marshalASCII(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return asciiOnly(strings.TrimRight(buf.String(), "\n")), nil
}
