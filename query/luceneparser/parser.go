package luceneparser

import (
	"fmt"
	"strconv"

	"github.com/eaglenest7/infino/query/ast"
)

// Parse lowers a Lucene expression string into the shared query AST.
// defaultField is used for any term not prefixed with "field:". Boost
// suffixes (^n) are parsed and discarded, per spec's "parsed, semantically
// dropped" scoring policy; fuzzy (~n) and proximity ("a b"~n) modifiers
// are parsed and folded into Match/Term nodes without effect on matching
// semantics, since this system does not rank or edit-distance match.
func Parse(input, defaultField string) (ast.Node, error) {
	p := &parser{lex: newLexer(input), defaultField: defaultField}
	p.advance()

	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("luceneparser: unexpected trailing input at %q", p.tok.text)
	}

	return node, nil
}

type parser struct {
	lex          *lexer
	tok          token
	defaultField string
}

func (p *parser) advance() {
	p.tok = p.lex.next()
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	if p.tok.kind != k {
		return token{}, fmt.Errorf("luceneparser: expected %s, got %q", what, p.tok.text)
	}
	t := p.tok
	p.advance()

	return t, nil
}

// parseOr binds loosest: explicit "OR"/"||" and bare adjacency (the
// default operator) both combine at this level.
func (p *parser) parseOr() (ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	var should []ast.Node
	for {
		switch p.tok.kind {
		case tokOr:
			p.advance()
		case tokEOF, tokRParen:
			if should == nil {
				return left, nil
			}

			return &ast.Bool{Should: append([]ast.Node{left}, should...)}, nil
		default:
			if !startsUnary(p.tok.kind) {
				if should == nil {
					return left, nil
				}

				return &ast.Bool{Should: append([]ast.Node{left}, should...)}, nil
			}
			// implicit adjacency: default operator is OR
		}

		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		should = append(should, right)
	}
}

// parseAnd binds tighter than OR: only an explicit "AND"/"&&" joins at
// this level.
func (p *parser) parseAnd() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	var must []ast.Node
	for p.tok.kind == tokAnd {
		p.advance()

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		must = append(must, right)
	}

	if must == nil {
		return left, nil
	}

	return &ast.Bool{Must: append([]ast.Node{left}, must...)}, nil
}

func startsUnary(k tokenKind) bool {
	switch k {
	case tokLParen, tokPlus, tokMinus, tokNot, tokWord, tokString, tokRegex, tokTo:
		return true
	default:
		return false
	}
}

// parseUnary handles the leading "NOT"/"+"/"-" modifiers, then a primary
// clause, then trailing boost/fuzzy/proximity suffixes.
func (p *parser) parseUnary() (ast.Node, error) {
	switch p.tok.kind {
	case tokNot, tokMinus:
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &ast.Bool{MustNot: []ast.Node{inner}}, nil
	case tokPlus:
		p.advance()

		return p.parseUnary()
	}

	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	return p.parseSuffixes(node)
}

// parseSuffixes consumes and discards boost (^n) and fuzzy (~n) modifiers
// trailing a clause.
func (p *parser) parseSuffixes(node ast.Node) (ast.Node, error) {
	for {
		switch p.tok.kind {
		case tokCaret:
			p.advance()
			if p.tok.kind == tokWord {
				p.advance()
			}
		case tokTilde:
			p.advance()
			if p.tok.kind == tokWord {
				p.advance()
			}
		default:
			return node, nil
		}
	}
}

func (p *parser) parsePrimary() (ast.Node, error) {
	switch p.tok.kind {
	case tokLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}

		return inner, nil
	case tokRegex:
		value := p.tok.text
		p.advance()

		return &ast.Regexp{Field: p.defaultField, Value: value}, nil
	case tokString:
		value := p.tok.text
		p.advance()

		return &ast.Match{Field: p.defaultField, Value: value}, nil
	case tokWord, tokTo:
		return p.parseFieldOrWord()
	case tokLBracket, tokLBrace:
		return p.parseRange(p.defaultField)
	default:
		return nil, fmt.Errorf("luceneparser: unexpected token %q", p.tok.text)
	}
}

func (p *parser) parseFieldOrWord() (ast.Node, error) {
	word := p.tok.text
	p.advance()

	if p.tok.kind != tokColon {
		return wordNode(p.defaultField, word), nil
	}

	// field-prefixed clause
	p.advance() // consume ':'

	switch p.tok.kind {
	case tokLBracket, tokLBrace:
		return p.parseRange(word)
	case tokString:
		value := p.tok.text
		p.advance()

		return &ast.Match{Field: word, Value: value}, nil
	case tokRegex:
		value := p.tok.text
		p.advance()

		return &ast.Regexp{Field: word, Value: value}, nil
	case tokWord, tokTo:
		value := p.tok.text
		p.advance()

		return wordNode(word, value), nil
	default:
		return nil, fmt.Errorf("luceneparser: expected value after %q:", word)
	}
}

// wordNode classifies a bare word as Wildcard (contains '*' or '?'),
// otherwise Term.
func wordNode(field, word string) ast.Node {
	for _, r := range word {
		if r == '*' || r == '?' {
			return &ast.Wildcard{Field: field, Value: word}
		}
	}

	return &ast.Term{Field: field, Value: word}
}

func (p *parser) parseRange(field string) (ast.Node, error) {
	inclusive := p.tok.kind == tokLBracket
	p.advance() // consume '[' or '{'

	lo, err := p.parseRangeEndpoint()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokTo, "TO"); err != nil {
		return nil, err
	}

	hi, err := p.parseRangeEndpoint()
	if err != nil {
		return nil, err
	}

	closeKind := tokRBracket
	if !inclusive {
		closeKind = tokRBrace
	}
	if _, err := p.expect(closeKind, rangeCloseText(inclusive)); err != nil {
		return nil, err
	}

	r := &ast.Range{Field: field}
	if lo != "*" {
		v, perr := strconv.ParseFloat(lo, 64)
		if perr != nil {
			return nil, fmt.Errorf("luceneparser: invalid range bound %q", lo)
		}
		if inclusive {
			r.Gte = ast.RangeBound{Value: v, Present: true}
		} else {
			r.Gt = ast.RangeBound{Value: v, Present: true}
		}
	}
	if hi != "*" {
		v, perr := strconv.ParseFloat(hi, 64)
		if perr != nil {
			return nil, fmt.Errorf("luceneparser: invalid range bound %q", hi)
		}
		if inclusive {
			r.Lte = ast.RangeBound{Value: v, Present: true}
		} else {
			r.Lt = ast.RangeBound{Value: v, Present: true}
		}
	}

	return r, nil
}

func rangeCloseText(inclusive bool) string {
	if inclusive {
		return "]"
	}

	return "}"
}

func (p *parser) parseRangeEndpoint() (string, error) {
	if p.tok.kind != tokWord && p.tok.kind != tokTo {
		return "", fmt.Errorf("luceneparser: expected range endpoint, got %q", p.tok.text)
	}
	text := p.tok.text
	p.advance()

	return text, nil
}
