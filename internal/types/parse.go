package types

import (
	"fmt"
	"strconv"
)

// Parse reads the surface syntax produced by Desc.String, e.g. "i64",
// "Maybe<i32>", "Map<i64, str>". Whitespace around arguments is ignored.
func Parse(s string) (Desc, error) {
	p := &descParser{src: s}
	d, err := p.parse()
	if err != nil {
		return Desc{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Desc{}, fmt.Errorf("trailing input %q in type %q", p.src[p.pos:], s)
	}
	if !d.IsValid() {
		return Desc{}, fmt.Errorf("invalid type %q", s)
	}
	return d, nil
}

type descParser struct {
	src string
	pos int
}

func (p *descParser) parse() (Desc, error) {
	p.skipSpace()
	name := p.ident()
	if name == "" {
		return Desc{}, fmt.Errorf("expected type name at offset %d in %q", p.pos, p.src)
	}
	switch name {
	case "bool":
		return Bool(), nil
	case "char":
		return Char(), nil
	case "str":
		return Str(), nil
	case "Maybe":
		args, err := p.args(1)
		if err != nil {
			return Desc{}, err
		}
		return Maybe(args[0]), nil
	case "Result":
		args, err := p.args(2)
		if err != nil {
			return Desc{}, err
		}
		return Result(args[0], args[1]), nil
	case "Map":
		args, err := p.args(2)
		if err != nil {
			return Desc{}, err
		}
		return Map(args[0], args[1]), nil
	}
	if len(name) >= 2 {
		width, err := strconv.Atoi(name[1:])
		if err == nil {
			switch name[0] {
			case 'i':
				return Int(width), nil
			case 'u':
				return Uint(width), nil
			case 'f':
				return Float(width), nil
			}
		}
	}
	return Desc{}, fmt.Errorf("unknown type name %q in %q", name, p.src)
}

func (p *descParser) args(n int) ([]Desc, error) {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '<' {
		return nil, fmt.Errorf("expected '<' at offset %d in %q", p.pos, p.src)
	}
	p.pos++
	out := make([]Desc, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			p.skipSpace()
			if p.pos >= len(p.src) || p.src[p.pos] != ',' {
				return nil, fmt.Errorf("expected ',' at offset %d in %q", p.pos, p.src)
			}
			p.pos++
		}
		arg, err := p.parse()
		if err != nil {
			return nil, err
		}
		out = append(out, arg)
	}
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '>' {
		return nil, fmt.Errorf("expected '>' at offset %d in %q", p.pos, p.src)
	}
	p.pos++
	return out, nil
}

func (p *descParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *descParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}
