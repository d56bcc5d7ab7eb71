/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package lang

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Parser is a recursive-descent parser over a two-token lookahead window
// (cur/peek), in the shape of the teacher's rsql.parser. It accumulates
// ParseErrors rather than failing on the first mistake (§4.2).
type Parser struct {
	l     *Lexer
	input string

	cur, peek Token
	errors    ParseErrors
}

// NewParser creates a Parser over src.
func NewParser(src string) *Parser {
	p := &Parser{l: NewLexer(src), input: src}
	p.next()
	p.next()
	return p
}

// Parse lexes and parses src in one call, returning the CST. A non-nil
// error is always a ParseErrors; callers that need per-error detail should
// type-assert it.
func Parse(src string) (*Program, error) {
	p := NewParser(src)
	prog := p.ParseProgram()
	if len(p.errors) > 0 {
		return prog, p.errors
	}
	return prog, nil
}

func (p *Parser) next() {
	p.cur = p.peek
	tok, err := p.l.NextToken()
	if err != nil {
		if lexErr, ok := err.(*LexError); ok {
			p.errors = append(p.errors, &ParseError{Expected: "valid token", Got: lexErr.Message, Pos: lexErr.Pos})
		}
		tok = Token{Type: ILLEGAL, Pos: p.peek.Pos}
	}
	p.peek = tok
}

func (p *Parser) errorf(expected string) {
	p.errors = append(p.errors, &ParseError{Expected: expected, Got: string(p.cur.Type), Pos: p.cur.Pos})
}

// expect consumes cur if it matches tt, else records an error and leaves
// the cursor in place so callers can attempt to resynchronize.
func (p *Parser) expect(tt TokenType) bool {
	if p.cur.Type == tt {
		p.next()
		return true
	}
	p.errorf(string(tt))
	return false
}

// ident consumes the current token as a name, demoting any keyword to
// plain identifier text per §4.1's context-sensitive reserved words.
func (p *Parser) ident() string {
	if p.cur.Type == IDENT || IsKeyword(p.cur.Type) {
		lit := p.cur.Literal
		p.next()
		return lit
	}
	p.errorf("identifier")
	return ""
}

// ParseProgram parses `statement (";" statement)* ";"?`.
func (p *Parser) ParseProgram() *Program {
	prog := &Program{}
	for p.cur.Type != EOF {
		if p.cur.Type == SEMICOLON {
			p.next()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		if p.cur.Type == SEMICOLON {
			p.next()
		} else if p.cur.Type != EOF {
			p.resync()
		}
	}
	return prog
}

// resync skips tokens until the next statement boundary after a parse
// error, so one mistake does not suppress every later diagnostic.
func (p *Parser) resync() {
	for p.cur.Type != SEMICOLON && p.cur.Type != EOF {
		p.next()
	}
	if p.cur.Type == SEMICOLON {
		p.next()
	}
}

func (p *Parser) parseStatement() Statement {
	switch p.cur.Type {
	case CREATE:
		return p.parseCreate()
	case DELETE:
		return p.parseDelete()
	case INSERT:
		return p.parseInsert()
	case FLUSH:
		return p.parseFlush()
	case LIST:
		return p.parseList()
	case INFO:
		return p.parseInfo()
	case SUBSCRIBE:
		return p.parseSubscribe()
	case UNSUBSCRIBE:
		return p.parseUnsubscribe()
	default:
		return p.parsePipeline()
	}
}

func (p *Parser) parsePolicy() CreatePolicy {
	switch p.cur.Type {
	case OR_KW:
		p.next()
		p.expect(REPLACE)
		return PolicyOrReplace
	case IF:
		p.next()
		p.expect(NOT)
		p.expect(EXISTS)
		return PolicyIfNotExists
	default:
		return PolicyStrict
	}
}

func (p *Parser) parseCreate() Statement {
	p.next() // consume CREATE
	policy := p.parsePolicy()
	switch p.cur.Type {
	case STREAM:
		p.next()
		name := p.ident()
		return &CreateStreamStmt{Name: name, Policy: policy}
	case FLOW:
		p.next()
		name := p.ident()
		var ttl *Duration
		if p.cur.Type == TTL {
			p.next()
			p.expect(LPAREN)
			if p.cur.Type == DURATION {
				d := parseDurationLiteral(p.cur.Literal)
				ttl = &d
				p.next()
			} else {
				p.errorf("duration literal")
			}
			p.expect(RPAREN)
		}
		if p.cur.Type == FROM {
			p.next()
		} else {
			p.expect(AS)
		}
		start := p.cur.Pos.Offset
		pipeline := p.parsePipeline()
		end := p.cur.Pos.Offset
		text := ""
		if end >= start && end <= len(p.input) {
			text = strings.TrimSpace(p.input[start:end])
		}
		return &CreateFlowStmt{Name: name, Policy: policy, TTL: ttl, Pipeline: pipeline, SourceText: text}
	default:
		p.errorf("'stream' or 'flow'")
		return nil
	}
}

func (p *Parser) parseDelete() Statement {
	p.next()
	switch p.cur.Type {
	case STREAM:
		p.next()
		return &DeleteStreamStmt{Name: p.ident()}
	case FLOW:
		p.next()
		return &DeleteFlowStmt{Name: p.ident()}
	default:
		p.errorf("'stream' or 'flow'")
		return nil
	}
}

func (p *Parser) parseInsert() Statement {
	p.next()
	p.expect(INTO)
	target := p.ident()
	val := p.parseTernary()
	return &InsertStmt{Target: target, Value: val}
}

func (p *Parser) parseFlush() Statement {
	p.next()
	return &FlushStmt{Name: p.ident()}
}

func (p *Parser) parseList() Statement {
	p.next()
	switch p.cur.Type {
	case STREAMS:
		p.next()
		return &ListStmt{Kind: ListStreams}
	case FLOWS:
		p.next()
		return &ListStmt{Kind: ListFlows}
	default:
		p.errorf("'streams' or 'flows'")
		return nil
	}
}

func (p *Parser) parseInfo() Statement {
	p.next()
	name := ""
	if p.cur.Type != SEMICOLON && p.cur.Type != EOF {
		name = p.ident()
	}
	return &InfoStmt{Name: name}
}

func (p *Parser) parseSubscribe() Statement {
	p.next()
	name := ""
	if p.cur.Type != SEMICOLON && p.cur.Type != EOF {
		name = p.ident()
	}
	return &SubscribeStmt{StreamName: name}
}

func (p *Parser) parseUnsubscribe() Statement {
	p.next()
	if p.cur.Type != NUMBER {
		p.errorf("subscription id")
		return nil
	}
	id, _ := strconv.Atoi(p.cur.Literal)
	p.next()
	return &UnsubscribeStmt{ID: id}
}

// parsePipeline parses `identifier ("|" operation)*`.
func (p *Parser) parsePipeline() *Pipeline {
	source := p.ident()
	pipeline := &Pipeline{Source: source}
	for p.cur.Type == PIPE {
		p.next()
		op := p.parseOperation()
		if op != nil {
			pipeline.Operations = append(pipeline.Operations, op)
		}
	}
	return pipeline
}

func (p *Parser) parseOperation() Operation {
	switch p.cur.Type {
	case WHERE:
		p.next()
		return &WhereOp{Cond: p.parseTernary()}
	case SELECT, PROJECT:
		legacy := p.cur.Type == PROJECT
		p.next()
		obj := p.parseObjectLiteral()
		return &SelectOp{Object: obj, Legacy: legacy}
	case SCAN:
		p.next()
		p.expect(LPAREN)
		steps := p.parseScanSteps()
		p.expect(RPAREN)
		return &ScanOp{Steps: steps}
	case SUMMARIZE:
		p.next()
		return p.parseSummarize()
	case INSERT_INTO:
		p.next()
		p.expect(LPAREN)
		name := p.ident()
		p.expect(RPAREN)
		return &InsertIntoOp{Target: name}
	case COLLECT:
		p.next()
		p.expect(LPAREN)
		p.expect(RPAREN)
		return &CollectOp{}
	default:
		p.errorf("a pipeline operation")
		return nil
	}
}

func (p *Parser) parseScanSteps() []ScanStep {
	var steps []ScanStep
	for p.cur.Type == STEP {
		p.next()
		name := p.ident()
		p.expect(COLON)
		cond := p.parseTernary()
		p.expect(ARROW)
		body := p.parseScanStmtList()
		steps = append(steps, ScanStep{Name: name, Condition: cond, Body: body})
		if p.cur.Type == SEMICOLON {
			p.next()
			continue
		}
		break
	}
	return steps
}

func (p *Parser) parseScanStmtList() []ScanStmt {
	stmts := []ScanStmt{p.parseScanStmt()}
	for p.cur.Type == COMMA {
		p.next()
		stmts = append(stmts, p.parseScanStmt())
	}
	return stmts
}

func (p *Parser) parseScanStmt() ScanStmt {
	if p.cur.Type == EMIT {
		p.next()
		p.expect(LPAREN)
		e := p.parseTernary()
		p.expect(RPAREN)
		return &EmitStmt{Expr: e}
	}
	path := p.parseLValuePath()
	p.expect(ASSIGN)
	e := p.parseTernary()
	return &AssignStmt{Path: path, Expr: e}
}

func (p *Parser) parseLValuePath() []string {
	path := []string{p.ident()}
	for p.cur.Type == DOT {
		p.next()
		path = append(path, p.ident())
	}
	return path
}

func (p *Parser) parseSummarize() Operation {
	aggr := p.parseObjectLiteral()
	op := &SummarizeOp{Aggregates: aggr, WindowVar: "window"}
	if p.cur.Type == BY {
		p.next()
		op.GroupBy = append(op.GroupBy, p.parseTernary())
		for p.cur.Type == COMMA {
			p.next()
			op.GroupBy = append(op.GroupBy, p.parseTernary())
		}
	}
	switch p.cur.Type {
	case OVER:
		p.next()
		op.WindowVar = p.ident()
		p.expect(ASSIGN)
		fn := p.ident()
		p.expect(LPAREN)
		args := p.parseExprList(RPAREN)
		p.expect(RPAREN)
		op.Window = &WindowCall{Func: fn, Args: args}
	case EMIT:
		p.next()
		op.Emit = p.parseEmitClause()
	}
	return op
}

func (p *Parser) parseEmitClause() *EmitClause {
	switch p.cur.Type {
	case EVERY:
		p.next()
		n := p.parseTernary()
		ec := &EmitClause{Kind: EmitEvery, N: n}
		if p.cur.Type == USING {
			p.next()
			ec.Using = p.parseTernary()
		}
		return ec
	case WHEN:
		p.next()
		return &EmitClause{Kind: EmitWhen, Cond: p.parseTernary()}
	case ON:
		p.next()
		switch p.cur.Type {
		case CHANGE:
			p.next()
			return &EmitClause{Kind: EmitOnChange, Value: p.parseTernary()}
		case GROUP:
			p.next()
			p.expect(CHANGE)
			return &EmitClause{Kind: EmitOnGroupChange}
		case UPDATE:
			p.next()
			return &EmitClause{Kind: EmitOnUpdate}
		default:
			p.errorf("'change', 'group change' or 'update'")
			return nil
		}
	default:
		p.errorf("'every', 'when' or 'on'")
		return nil
	}
}

// --- object / array literals -------------------------------------------------

func (p *Parser) parseObjectLiteral() *ObjectLiteral {
	p.expect(LBRACE)
	obj := &ObjectLiteral{}
	for p.cur.Type != RBRACE && p.cur.Type != EOF {
		obj.Properties = append(obj.Properties, p.parseProperty())
		if p.cur.Type == COMMA {
			p.next()
			continue
		}
		break
	}
	p.expect(RBRACE)
	return obj
}

func (p *Parser) parseProperty() Property {
	switch p.cur.Type {
	case ELLIPSIS:
		p.next()
		if p.cur.Type == STAR {
			p.next()
			return Property{Kind: PropSpreadAll}
		}
		return Property{Kind: PropSpreadExpr, Value: p.parseTernary()}
	case MINUS:
		p.next()
		return Property{Kind: PropExclusion, Key: p.ident()}
	}

	key := p.parsePropertyKey()
	if p.cur.Type == COLON {
		p.next()
		return Property{Kind: PropKeyValue, Key: key, Value: p.parseTernary()}
	}
	return Property{Kind: PropShorthand, Key: key}
}

func (p *Parser) parsePropertyKey() string {
	if p.cur.Type == STRING {
		lit := p.cur.Literal
		p.next()
		return lit
	}
	return p.ident()
}

// --- expressions --------------------------------------------------------

func (p *Parser) parseExprList(end TokenType) []Expr {
	var list []Expr
	if p.cur.Type == end {
		return list
	}
	list = append(list, p.parseTernary())
	for p.cur.Type == COMMA {
		p.next()
		list = append(list, p.parseTernary())
	}
	return list
}

func (p *Parser) parseTernary() Expr {
	cond := p.parseOr()
	if p.cur.Type == QUESTION {
		p.next()
		then := p.parseTernary()
		p.expect(COLON)
		els := p.parseTernary()
		return &TernaryExpr{Cond: cond, Then: then, Else: els}
	}
	return cond
}

func (p *Parser) parseOr() Expr {
	left := p.parseAnd()
	for p.cur.Type == OR {
		p.next()
		left = &BinaryExpr{Op: "||", L: left, R: p.parseAnd()}
	}
	return left
}

func (p *Parser) parseAnd() Expr {
	left := p.parseComparison()
	for p.cur.Type == AND {
		p.next()
		left = &BinaryExpr{Op: "&&", L: left, R: p.parseComparison()}
	}
	return left
}

var comparisonOps = map[TokenType]string{
	EQ: "==", NEQ: "!=", LT: "<", GT: ">", LE: "<=", GE: ">=",
}

func (p *Parser) parseComparison() Expr {
	left := p.parseAdditive()
	for {
		op, ok := comparisonOps[p.cur.Type]
		if !ok {
			return left
		}
		p.next()
		left = &BinaryExpr{Op: op, L: left, R: p.parseAdditive()}
	}
}

func (p *Parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	for p.cur.Type == PLUS || p.cur.Type == MINUS {
		op := string(p.cur.Type)
		p.next()
		left = &BinaryExpr{Op: op, L: left, R: p.parseMultiplicative()}
	}
	return left
}

func (p *Parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	for p.cur.Type == STAR || p.cur.Type == SLASH {
		op := string(p.cur.Type)
		p.next()
		left = &BinaryExpr{Op: op, L: left, R: p.parseUnary()}
	}
	return left
}

func (p *Parser) parseUnary() Expr {
	if p.cur.Type == MINUS || p.cur.Type == PLUS {
		op := string(p.cur.Type)
		p.next()
		return &UnaryExpr{Op: op, X: p.parseUnary()}
	}
	return p.parseMemberPrimary()
}

func (p *Parser) parseMemberPrimary() Expr {
	e := p.parsePrimary()
	for {
		switch p.cur.Type {
		case DOT:
			p.next()
			e = &MemberExpr{Target: e, Name: p.ident()}
		case LBRACKET:
			p.next()
			idx := p.parseTernary()
			p.expect(RBRACKET)
			e = &MemberExpr{Target: e, Index: idx, Computed: true}
		case LPAREN:
			id, ok := e.(*Identifier)
			if !ok {
				return e
			}
			p.next()
			args := p.parseExprList(RPAREN)
			p.expect(RPAREN)
			e = &CallExpr{Name: id.Name, Args: args}
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() Expr {
	switch p.cur.Type {
	case NUMBER:
		f, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			p.errorf("number")
			f = 0
		}
		p.next()
		return &Literal{Value: f}
	case DURATION:
		d := parseDurationLiteral(p.cur.Literal)
		p.next()
		return &Literal{Value: float64(d.Nanos)}
	case STRING:
		v := p.cur.Literal
		p.next()
		return &Literal{Value: v}
	case BOOL:
		v := p.cur.Literal == "true"
		p.next()
		return &Literal{Value: v}
	case NULLLIT:
		p.next()
		return &Literal{Value: nil}
	case LPAREN:
		p.next()
		e := p.parseTernary()
		p.expect(RPAREN)
		return e
	case LBRACE:
		return &ObjectExpr{Object: p.parseObjectLiteral()}
	case LBRACKET:
		p.next()
		elems := p.parseExprList(RBRACKET)
		p.expect(RBRACKET)
		return &ArrayExpr{Elements: elems}
	case IDENT:
		name := p.cur.Literal
		p.next()
		return &Identifier{Name: name}
	default:
		if IsKeyword(p.cur.Type) {
			name := p.cur.Literal
			p.next()
			return &Identifier{Name: name}
		}
		p.errorf("an expression")
		tok := p.cur
		p.next() // avoid an infinite loop on a token no production accepts
		_ = tok
		return &Literal{Value: nil}
	}
}

// parseDurationLiteral parses "N{unit}" tokens (§4.1, §6.1) into
// nanoseconds. Unrecognized units are treated as seconds, the conservative
// fallback since the lexer only emits DURATION for a known unit already.
func parseDurationLiteral(lit string) Duration {
	i := 0
	for i < len(lit) && (lit[i] >= '0' && lit[i] <= '9' || lit[i] == '.') {
		i++
	}
	n := cast.ToFloat64(lit[:i])
	unit := lit[i:]
	var scale float64
	switch unit {
	case "ns":
		scale = 1
	case "us", "μs":
		scale = 1e3
	case "ms":
		scale = 1e6
	case "s":
		scale = 1e9
	case "m":
		scale = 60 * 1e9
	case "h":
		scale = 3600 * 1e9
	case "d":
		scale = 24 * 3600 * 1e9
	case "w":
		scale = 7 * 24 * 3600 * 1e9
	default:
		scale = 1e9
	}
	return Duration{Nanos: int64(n * scale)}
}
