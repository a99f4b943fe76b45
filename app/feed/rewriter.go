package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/cai-yang/arrs-rss-converter/app/rules"
)

// Rewriter applies the rule engine to every item title in a raw RSS
// document while keeping every other byte of the document unchanged.
// Titles written as CDATA stay CDATA, plain escaped titles stay plain.
//
// The document is scanned as a flat event stream rather than decoded into
// a DOM: encoding/xml erases the information this component must preserve
// (CDATA vs. escaped text, the XML declaration, attribute order and
// quoting), so markup outside item titles is copied through as literal
// byte ranges.
type Rewriter struct {
	engine *rules.Engine
}

func NewRewriter(engine *rules.Engine) *Rewriter {
	return &Rewriter{engine: engine}
}

// Run rewrites the item titles of a raw feed. It fails with
// ErrMalformedFeed on input that is not well-formed UTF-8 XML; no partial
// output is ever returned.
func (r *Rewriter) Run(raw []byte) ([]byte, error) {
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: body is not valid UTF-8", ErrMalformedFeed)
	}

	if err := checkDeclaredEncoding(raw); err != nil {
		return nil, err
	}

	s := &scanner{raw: raw, engine: r.engine}
	return s.rewrite()
}

var encodingAttrRe = regexp.MustCompile(`encoding\s*=\s*["']([^"']+)["']`)

// checkDeclaredEncoding rejects feeds whose XML declaration names an
// encoding other than UTF-8. Transcoding is out of scope; silently
// treating such bytes as UTF-8 would corrupt non-ASCII titles.
func checkDeclaredEncoding(raw []byte) error {
	body := bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	body = bytes.TrimLeft(body, " \t\r\n")
	if !bytes.HasPrefix(body, []byte("<?xml")) {
		return nil
	}

	end := bytes.Index(body, []byte("?>"))
	if end < 0 {
		return fmt.Errorf("%w: unterminated XML declaration", ErrMalformedFeed)
	}

	match := encodingAttrRe.FindSubmatch(body[:end])
	if match == nil {
		return nil
	}

	name := string(match[1])
	enc, err := htmlindex.Get(name)
	if err != nil {
		return fmt.Errorf("%w: unknown encoding declaration '%s'", ErrMalformedFeed, name)
	}
	if enc != unicode.UTF8 {
		return fmt.Errorf("%w: declared encoding '%s' is not UTF-8", ErrMalformedFeed, name)
	}

	return nil
}

var (
	cdataStart = []byte("<![CDATA[")
	cdataEnd   = []byte("]]>")
)

type scanner struct {
	raw    []byte
	pos    int
	out    bytes.Buffer
	stack  []string
	engine *rules.Engine
}

func (s *scanner) rewrite() ([]byte, error) {
	for s.pos < len(s.raw) {
		if s.raw[s.pos] != '<' {
			start := s.pos
			next := bytes.IndexByte(s.raw[s.pos:], '<')
			if next < 0 {
				s.pos = len(s.raw)
			} else {
				s.pos += next
			}
			s.out.Write(s.raw[start:s.pos])
			continue
		}

		if err := s.scanMarkup(); err != nil {
			return nil, err
		}
	}

	if len(s.stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed element <%s>", ErrMalformedFeed, s.stack[len(s.stack)-1])
	}

	return s.out.Bytes(), nil
}

// scanMarkup consumes one markup construct starting at the current '<'.
// Everything except item titles is copied through verbatim.
func (s *scanner) scanMarkup() error {
	rest := s.raw[s.pos:]

	switch {
	case bytes.HasPrefix(rest, []byte("<!--")):
		end := bytes.Index(rest, []byte("-->"))
		if end < 0 {
			return fmt.Errorf("%w: unterminated comment", ErrMalformedFeed)
		}
		s.copyN(end + len("-->"))

	case bytes.HasPrefix(rest, cdataStart):
		end := bytes.Index(rest, cdataEnd)
		if end < 0 {
			return fmt.Errorf("%w: unterminated CDATA section", ErrMalformedFeed)
		}
		s.copyN(end + len(cdataEnd))

	case bytes.HasPrefix(rest, []byte("<?")):
		end := bytes.Index(rest, []byte("?>"))
		if end < 0 {
			return fmt.Errorf("%w: unterminated processing instruction", ErrMalformedFeed)
		}
		s.copyN(end + len("?>"))

	case bytes.HasPrefix(rest, []byte("<!")):
		// DOCTYPE and friends; square brackets may nest an internal subset
		depth := 0
		for i := 2; i < len(rest); i++ {
			switch rest[i] {
			case '[':
				depth++
			case ']':
				depth--
			case '>':
				if depth == 0 {
					s.copyN(i + 1)
					return nil
				}
			}
		}
		return fmt.Errorf("%w: unterminated declaration", ErrMalformedFeed)

	case bytes.HasPrefix(rest, []byte("</")):
		end := bytes.IndexByte(rest, '>')
		if end < 0 {
			return fmt.Errorf("%w: unterminated end tag", ErrMalformedFeed)
		}
		name := strings.TrimSpace(string(rest[2:end]))
		if len(s.stack) == 0 {
			return fmt.Errorf("%w: unexpected </%s>", ErrMalformedFeed, name)
		}
		if top := s.stack[len(s.stack)-1]; top != name {
			return fmt.Errorf("%w: expected </%s>, found </%s>", ErrMalformedFeed, top, name)
		}
		s.stack = s.stack[:len(s.stack)-1]
		s.copyN(end + 1)

	default:
		return s.scanStartTag()
	}

	return nil
}

func (s *scanner) scanStartTag() error {
	name, tagLen, selfClosing, err := s.parseStartTag()
	if err != nil {
		return err
	}

	insideItem := len(s.stack) > 0 && s.stack[len(s.stack)-1] == "item"

	if name == "title" && insideItem {
		if selfClosing {
			return s.rewriteEmptyTitle(tagLen)
		}
		s.copyN(tagLen)
		return s.collectTitle()
	}

	s.copyN(tagLen)
	if !selfClosing {
		s.stack = append(s.stack, name)
	}

	return nil
}

func (s *scanner) parseStartTag() (name string, length int, selfClosing bool, err error) {
	rest := s.raw[s.pos:]

	i := 1
	for i < len(rest) && !isNameDelim(rest[i]) {
		i++
	}
	name = string(rest[1:i])
	if name == "" {
		return "", 0, false, fmt.Errorf("%w: element with empty name", ErrMalformedFeed)
	}

	for i < len(rest) {
		switch rest[i] {
		case '"', '\'':
			quote := rest[i]
			end := bytes.IndexByte(rest[i+1:], quote)
			if end < 0 {
				return "", 0, false, fmt.Errorf("%w: unterminated attribute value", ErrMalformedFeed)
			}
			i += end + 2
		case '>':
			return name, i + 1, rest[i-1] == '/', nil
		default:
			i++
		}
	}

	return "", 0, false, fmt.Errorf("%w: truncated tag <%s", ErrMalformedFeed, name)
}

// collectTitle consumes the content of an item title through its end tag.
// The extracted text goes through the rule engine; the converted text is
// written back in the encoding style the source used.
func (s *scanner) collectTitle() error {
	var parts []titlePart

	for s.pos < len(s.raw) {
		rest := s.raw[s.pos:]

		if rest[0] != '<' {
			next := bytes.IndexByte(rest, '<')
			if next < 0 {
				break
			}
			text, err := unescapeText(string(rest[:next]))
			if err != nil {
				return err
			}
			parts = append(parts, titlePart{text: text})
			s.pos += next
			continue
		}

		switch {
		case bytes.HasPrefix(rest, cdataStart):
			end := bytes.Index(rest, cdataEnd)
			if end < 0 {
				return fmt.Errorf("%w: unterminated CDATA section", ErrMalformedFeed)
			}
			parts = append(parts, titlePart{
				text:  string(rest[len(cdataStart):end]),
				cdata: true,
			})
			s.pos += end + len(cdataEnd)

		case bytes.HasPrefix(rest, []byte("</")):
			end := bytes.IndexByte(rest, '>')
			if end < 0 {
				return fmt.Errorf("%w: unterminated end tag", ErrMalformedFeed)
			}
			name := strings.TrimSpace(string(rest[2:end]))
			if name != "title" {
				return fmt.Errorf("%w: expected </title>, found </%s>", ErrMalformedFeed, name)
			}
			s.writeTitle(parts)
			s.copyN(end + 1)
			return nil

		default:
			return fmt.Errorf("%w: unexpected markup inside item title", ErrMalformedFeed)
		}
	}

	return fmt.Errorf("%w: item title not closed", ErrMalformedFeed)
}

func (s *scanner) writeTitle(parts []titlePart) {
	style := stylePlain
	for _, part := range parts {
		if part.cdata {
			style = styleCDATA
			break
		}
	}

	var text strings.Builder
	for _, part := range parts {
		// Layout whitespace around CDATA sections is not title text
		if style == styleCDATA && !part.cdata && strings.TrimSpace(part.text) == "" {
			continue
		}
		text.WriteString(part.text)
	}

	converted := s.engine.Convert(text.String())

	if style == styleCDATA {
		s.out.Write(cdataStart)
		// A literal "]]>" would terminate the section early; split it
		// across two adjacent sections
		s.out.WriteString(strings.ReplaceAll(converted, "]]>", "]]]]><![CDATA[>"))
		s.out.Write(cdataEnd)
		return
	}

	xml.EscapeText(&s.out, []byte(converted))
}

// rewriteEmptyTitle handles <title/> inside an item. Empty titles still go
// through the engine; if a rule produces text the element is expanded into
// an open/close pair, otherwise the source bytes pass through untouched.
func (s *scanner) rewriteEmptyTitle(tagLen int) error {
	converted := s.engine.Convert("")
	if converted == "" {
		s.copyN(tagLen)
		return nil
	}

	open := s.raw[s.pos : s.pos+tagLen]
	open = bytes.TrimSuffix(open, []byte(">"))
	open = bytes.TrimSuffix(open, []byte("/"))
	open = bytes.TrimRight(open, " \t\r\n")

	s.out.Write(open)
	s.out.WriteByte('>')
	xml.EscapeText(&s.out, []byte(converted))
	s.out.WriteString("</title>")

	s.pos += tagLen
	return nil
}

func (s *scanner) copyN(n int) {
	s.out.Write(s.raw[s.pos : s.pos+n])
	s.pos += n
}

func isNameDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '/', '>':
		return true
	}
	return false
}

// unescapeText resolves entity references in plain escaped text. Only the
// predefined XML entities and numeric character references are valid.
func unescapeText(raw string) (string, error) {
	if !strings.Contains(raw, "&") {
		return raw, nil
	}

	var b strings.Builder
	for i := 0; i < len(raw); {
		if raw[i] != '&' {
			b.WriteByte(raw[i])
			i++
			continue
		}

		end := strings.IndexByte(raw[i:], ';')
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated entity reference in title", ErrMalformedFeed)
		}

		entity := raw[i+1 : i+end]
		switch entity {
		case "amp":
			b.WriteByte('&')
		case "lt":
			b.WriteByte('<')
		case "gt":
			b.WriteByte('>')
		case "quot":
			b.WriteByte('"')
		case "apos":
			b.WriteByte('\'')
		default:
			r, err := parseCharRef(entity)
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		}

		i += end + 1
	}

	return b.String(), nil
}

func parseCharRef(entity string) (rune, error) {
	if !strings.HasPrefix(entity, "#") {
		return 0, fmt.Errorf("%w: unknown entity '&%s;' in title", ErrMalformedFeed, entity)
	}

	digits := entity[1:]
	base := 10
	if strings.HasPrefix(digits, "x") || strings.HasPrefix(digits, "X") {
		digits = digits[1:]
		base = 16
	}

	n, err := strconv.ParseInt(digits, base, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return 0, fmt.Errorf("%w: invalid character reference '&%s;' in title", ErrMalformedFeed, entity)
	}

	return rune(n), nil
}
