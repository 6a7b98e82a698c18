package qf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/tagproxy/internal/tag"
)

// FormatError reports a malformed query format or a failure while
// expanding it. Pos is the byte offset in the format string.
type FormatError struct {
	Pos     int
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("query format: position %d: %s", e.Pos, e.Message)
}

func errorf(pos int, format string, args ...any) *FormatError {
	return &FormatError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

type node interface{ node() }

type literal struct {
	text string
}

type tagRef struct {
	pos   int
	tag   tag.Tag
	fmt   string
	width int
	left  bool
	count bool // %{#TAG}
	first bool // %{=TAG}
}

type iteration struct {
	pos   int
	nodes []node
}

func (literal) node()   {}
func (tagRef) node()    {}
func (iteration) node() {}

var escapes = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'v':  '\v',
	'\\': '\\',
	'"':  '"',
}

type parser struct {
	src string
	pos int
}

// parse reads nodes until end of input or, inside an iteration, the
// closing bracket.
func (p *parser) parse(inIteration bool) ([]node, error) {
	var nodes []node
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, literal{text: text.String()})
			text.Reset()
		}
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '\\':
			if p.pos+1 >= len(p.src) {
				return nil, errorf(p.pos, "escape at end of format")
			}
			next := p.src[p.pos+1]
			if r, ok := escapes[next]; ok {
				text.WriteByte(r)
			} else {
				text.WriteByte(next)
			}
			p.pos += 2

		case '%':
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '%' {
				text.WriteByte('%')
				p.pos += 2
				continue
			}
			flush()
			ref, err := p.parseTag()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, ref)

		case '[':
			if inIteration {
				return nil, errorf(p.pos, "nested iteration")
			}
			flush()
			start := p.pos
			p.pos++
			inner, err := p.parse(true)
			if err != nil {
				return nil, err
			}
			if p.pos >= len(p.src) {
				return nil, errorf(start, "unterminated [")
			}
			p.pos++
			nodes = append(nodes, iteration{pos: start, nodes: inner})

		case ']':
			if !inIteration {
				return nil, errorf(p.pos, "unexpected ]")
			}
			flush()
			return nodes, nil

		default:
			text.WriteByte(c)
			p.pos++
		}
	}
	flush()
	return nodes, nil
}

// parseTag reads %[-][width]{[#=]TAG[:fmt]} starting at the percent sign.
func (p *parser) parseTag() (tagRef, error) {
	ref := tagRef{pos: p.pos}
	p.pos++

	if p.pos < len(p.src) && p.src[p.pos] == '-' {
		ref.left = true
		p.pos++
	}
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos > start {
		w, err := strconv.Atoi(p.src[start:p.pos])
		if err != nil {
			return tagRef{}, errorf(start, "bad field width")
		}
		ref.width = w
	}

	if p.pos >= len(p.src) || p.src[p.pos] != '{' {
		return tagRef{}, errorf(p.pos, "missing { after %%")
	}
	p.pos++

	end := strings.IndexByte(p.src[p.pos:], '}')
	if end < 0 {
		return tagRef{}, errorf(ref.pos, "missing }")
	}
	body := p.src[p.pos : p.pos+end]
	bodyPos := p.pos
	p.pos += end + 1

	if strings.HasPrefix(body, "#") {
		ref.count = true
		body = body[1:]
	} else if strings.HasPrefix(body, "=") {
		ref.first = true
		body = body[1:]
	}

	name, format, hasFormat := strings.Cut(body, ":")
	if hasFormat {
		if _, ok := formatters[format]; !ok {
			return tagRef{}, errorf(bodyPos, "unknown format %q", format)
		}
		ref.fmt = format
	}

	if name == "" {
		return tagRef{}, errorf(bodyPos, "empty tag name")
	}
	t, ok := tag.Value(name)
	if !ok {
		return tagRef{}, errorf(bodyPos, "unknown tag %q", name)
	}
	ref.tag = t
	return ref, nil
}
