package main

import "strings"

// WhereCond is one `<ident> = <literal>` conjunct. Literal is the
// literal's string form, ready for the engine's string-form equality
// comparison.
type WhereCond struct {
	Column  string
	Literal string
}

// SelectQuery is the parsed, unvalidated shape of an accepted SELECT
// statement: validation against a live schema happens in the planner,
// not here.
type SelectQuery struct {
	CountStar  bool
	Star       bool
	Columns    []string
	Table      string
	Where      []WhereCond
}

// ParseSelect parses `SELECT <proj> FROM <ident> [WHERE <cond>]*`
// case-insensitively on keywords; identifiers stay case-sensitive. The
// WHERE clause is a permissive sequence of `<ident> = <literal>`
// conjuncts with no AND separator, terminated at end of input — a
// grammar no standard SQL parser accepts, which is why this dialect gets
// its own hand-rolled parser instead of leaning on a library one.
func ParseSelect(input string) (*SelectQuery, error) {
	t := NewTokenizer(input)

	if err := t.Tag("select"); err != nil {
		return nil, err
	}

	q := &SelectQuery{}

	first, ok := t.Peek()
	if !ok {
		return nil, NewDatabaseError("parse_select", ErrParse, map[string]interface{}{"reason": "expected projection"})
	}

	switch {
	case first.Kind == TokenPunctuation && first.Punct == '*':
		t.Next()
		q.Star = true
	case first.Kind == TokenIdentifier && strings.EqualFold(first.Text, "count"):
		t.Next()
		if err := t.Tag("("); err != nil {
			return nil, err
		}
		// Accept any single token inside the parens; every call is
		// treated as COUNT(*) regardless of its argument.
		if _, ok := t.Next(); !ok {
			return nil, NewDatabaseError("parse_select", ErrParse, map[string]interface{}{"reason": "expected COUNT argument"})
		}
		if err := t.Tag(")"); err != nil {
			return nil, err
		}
		q.CountStar = true
	default:
		cols, err := parseIdentList(t)
		if err != nil {
			return nil, err
		}
		q.Columns = cols
	}

	if err := t.Tag("from"); err != nil {
		return nil, err
	}

	tableTok, ok := t.Next()
	if !ok || tableTok.Kind != TokenIdentifier {
		return nil, NewDatabaseError("parse_select", ErrParse, map[string]interface{}{"reason": "expected table name"})
	}
	q.Table = tableTok.Text

	if peek, ok := t.Peek(); ok && peek.Kind == TokenIdentifier && strings.EqualFold(peek.Text, "where") {
		t.Next()
		conds, err := parseWhereConds(t)
		if err != nil {
			return nil, err
		}
		q.Where = conds
	}

	if _, ok := t.Peek(); ok {
		return nil, NewDatabaseError("parse_select", ErrParse, map[string]interface{}{"reason": "unexpected trailing input", "remaining": t.Remaining()})
	}

	return q, nil
}

func parseIdentList(t *Tokenizer) ([]string, error) {
	var cols []string
	for {
		tok, ok := t.Next()
		if !ok || tok.Kind != TokenIdentifier {
			return nil, NewDatabaseError("parse_select", ErrParse, map[string]interface{}{"reason": "expected column name"})
		}
		cols = append(cols, tok.Text)

		peek, ok := t.Peek()
		if !ok || peek.Kind != TokenPunctuation || peek.Punct != ',' {
			return cols, nil
		}
		t.Next()
	}
}

// parseWhereConds parses a juxtaposed sequence of `<ident> = <literal>`
// conjuncts, stopping at end of input. There is no AND keyword.
func parseWhereConds(t *Tokenizer) ([]WhereCond, error) {
	var conds []WhereCond
	for {
		if _, ok := t.Peek(); !ok {
			return conds, nil
		}

		colTok, ok := t.Next()
		if !ok || colTok.Kind != TokenIdentifier {
			return nil, NewDatabaseError("parse_where", ErrParse, map[string]interface{}{"reason": "expected column name"})
		}

		if err := t.Tag("="); err != nil {
			return nil, err
		}

		litTok, ok := t.Next()
		if !ok {
			return nil, NewDatabaseError("parse_where", ErrParse, map[string]interface{}{"reason": "expected literal"})
		}

		var literal string
		switch litTok.Kind {
		case TokenNumber:
			literal = formatInt64(litTok.Number)
		case TokenQuotedString, TokenIdentifier:
			literal = litTok.Text
		default:
			return nil, NewDatabaseError("parse_where", ErrParse, map[string]interface{}{"reason": "expected literal"})
		}

		conds = append(conds, WhereCond{Column: colTok.Text, Literal: literal})
	}
}
