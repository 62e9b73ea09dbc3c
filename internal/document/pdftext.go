package document

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// tjSpaceThreshold is the TJ displacement (in thousandths of text space)
// beyond which a kerning adjustment is treated as a word gap.
const tjSpaceThreshold = -250

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokName
	tokArray
	tokDict
	tokOperator
)

type token struct {
	kind  tokenKind
	text  string
	num   float64
	items []token
}

// contentLexer tokenizes a PDF page content stream. It understands just
// enough of the syntax to recover text-showing operators and their operands.
type contentLexer struct {
	data []byte
	pos  int
}

func isPDFWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isPDFDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *contentLexer) skipSpace() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isPDFWhitespace(c) {
			l.pos++
			continue
		}
		if c == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

// next returns the next token, or false at end of input.
func (l *contentLexer) next() (token, bool) {
	l.skipSpace()
	if l.pos >= len(l.data) {
		return token{}, false
	}
	c := l.data[l.pos]
	switch {
	case c == '(':
		l.pos++
		return token{kind: tokString, text: l.literalString()}, true
	case c == '<' && l.peek(1) == '<':
		l.pos += 2
		return token{kind: tokDict, items: l.until(">>")}, true
	case c == '<':
		l.pos++
		return token{kind: tokString, text: l.hexString()}, true
	case c == '[':
		l.pos++
		return token{kind: tokArray, items: l.until("]")}, true
	case c == '/':
		l.pos++
		return token{kind: tokName, text: l.regular()}, true
	case c == ']' || c == '>' || c == ')' || c == '{' || c == '}':
		// Stray closing delimiter; surface it as an operator so callers
		// can discard it.
		l.pos++
		return token{kind: tokOperator, text: string(c)}, true
	}

	word := l.regular()
	if word == "" {
		l.pos++
		return token{kind: tokOperator, text: string(c)}, true
	}
	if n, err := strconv.ParseFloat(word, 64); err == nil {
		return token{kind: tokNumber, num: n, text: word}, true
	}
	return token{kind: tokOperator, text: word}, true
}

func (l *contentLexer) peek(offset int) byte {
	if l.pos+offset < len(l.data) {
		return l.data[l.pos+offset]
	}
	return 0
}

func (l *contentLexer) regular() string {
	start := l.pos
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isPDFWhitespace(c) || isPDFDelimiter(c) {
			break
		}
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// until collects tokens up to the closing delimiter.
func (l *contentLexer) until(closing string) []token {
	var items []token
	for {
		l.skipSpace()
		if l.pos >= len(l.data) {
			return items
		}
		if bytes.HasPrefix(l.data[l.pos:], []byte(closing)) {
			l.pos += len(closing)
			return items
		}
		tok, ok := l.next()
		if !ok {
			return items
		}
		items = append(items, tok)
	}
}

func (l *contentLexer) literalString() string {
	var sb strings.Builder
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
			sb.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return sb.String()
			}
			sb.WriteByte(c)
		case '\\':
			l.escape(&sb)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func (l *contentLexer) escape(sb *strings.Builder) {
	if l.pos >= len(l.data) {
		return
	}
	c := l.data[l.pos]
	l.pos++
	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case '\r':
		// Line continuation.
		if l.pos < len(l.data) && l.data[l.pos] == '\n' {
			l.pos++
		}
	case '\n':
	default:
		if c >= '0' && c <= '7' {
			v := int(c - '0')
			for i := 0; i < 2 && l.pos < len(l.data); i++ {
				d := l.data[l.pos]
				if d < '0' || d > '7' {
					break
				}
				v = v*8 + int(d-'0')
				l.pos++
			}
			sb.WriteByte(byte(v))
			return
		}
		sb.WriteByte(c)
	}
}

func (l *contentLexer) hexString() string {
	var digits []byte
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		if c == '>' {
			break
		}
		if isHexDigit(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		v, _ := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		out = append(out, byte(v))
	}
	return string(out)
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// skipInlineImage advances past the binary payload of an inline image,
// which starts after ID and ends at a whitespace-delimited EI.
func (l *contentLexer) skipInlineImage() {
	for l.pos < len(l.data) && !isPDFWhitespace(l.data[l.pos]) {
		l.pos++
	}
	for l.pos+2 < len(l.data) {
		if isPDFWhitespace(l.data[l.pos]) &&
			l.data[l.pos+1] == 'E' && l.data[l.pos+2] == 'I' &&
			(l.pos+3 == len(l.data) || isPDFWhitespace(l.data[l.pos+3]) || isPDFDelimiter(l.data[l.pos+3])) {
			l.pos += 3
			return
		}
		l.pos++
	}
	l.pos = len(l.data)
}

// decodePDFString converts the raw bytes of a string operand to UTF-8.
// Strings carrying the FE FF byte order mark are UTF-16BE. Valid UTF-8
// passes through, and anything else is read as WinAnsi (Windows-1252),
// the encoding of the standard single-byte fonts.
func decodePDFString(raw string) string {
	if strings.HasPrefix(raw, "\xfe\xff") {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if s, err := dec.String(raw); err == nil {
			return s
		}
	}
	if utf8.ValidString(raw) {
		return raw
	}
	s, err := charmap.Windows1252.NewDecoder().String(raw)
	if err != nil {
		return strings.ToValidUTF8(raw, "\uFFFD")
	}
	return s
}

// decodeContentText recovers the text drawn by a content stream. String
// operands go through decodePDFString, which covers the simple
// single-byte fonts most text-based PDFs use. Line moves become newlines
// and large TJ kerning gaps become spaces.
func decodeContentText(stream []byte) string {
	lex := &contentLexer{data: stream}
	var out strings.Builder
	var operands []token

	newline := func() {
		s := out.String()
		if s != "" && !strings.HasSuffix(s, "\n") {
			out.WriteByte('\n')
		}
	}
	lastString := func() (string, bool) {
		for i := len(operands) - 1; i >= 0; i-- {
			if operands[i].kind == tokString {
				return operands[i].text, true
			}
		}
		return "", false
	}

	for {
		tok, ok := lex.next()
		if !ok {
			break
		}
		if tok.kind != tokOperator {
			operands = append(operands, tok)
			continue
		}

		switch tok.text {
		case "Tj":
			if s, ok := lastString(); ok {
				out.WriteString(decodePDFString(s))
			}
		case "'", "\"":
			newline()
			if s, ok := lastString(); ok {
				out.WriteString(decodePDFString(s))
			}
		case "TJ":
			if len(operands) > 0 && operands[len(operands)-1].kind == tokArray {
				for _, item := range operands[len(operands)-1].items {
					switch item.kind {
					case tokString:
						out.WriteString(decodePDFString(item.text))
					case tokNumber:
						if item.num < tjSpaceThreshold {
							out.WriteByte(' ')
						}
					}
				}
			}
		case "T*":
			newline()
		case "Td", "TD":
			if len(operands) >= 2 && operands[len(operands)-1].kind == tokNumber && operands[len(operands)-1].num != 0 {
				newline()
			}
		case "BI":
			// Inline image dictionary follows; the payload starts after ID.
			for {
				t, ok := lex.next()
				if !ok || (t.kind == tokOperator && t.text == "ID") {
					break
				}
			}
			lex.skipInlineImage()
		}
		operands = operands[:0]
	}
	return out.String()
}
