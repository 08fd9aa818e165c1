package expand

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"rungo.sh/ion/syntax"
	"rungo.sh/ion/value"
)

// stubEnviron is a bare map-backed Environ for expansion unit tests,
// exactly the kind of stub the Environ doc comment anticipates.
type stubEnviron struct {
	vars     map[string]value.Value
	env      map[string]string
	pwd      string
	home     string
	dirStack []string
	funcs    map[string]func(args []string) (string, int)
}

func newStub() *stubEnviron {
	return &stubEnviron{vars: map[string]value.Value{}, env: map[string]string{}}
}

func (s *stubEnviron) Get(name string) (value.Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}
func (s *stubEnviron) Env(name string) (string, bool) { v, ok := s.env[name]; return v, ok }
func (s *stubEnviron) Pwd() string                    { return s.pwd }
func (s *stubEnviron) Home(user string) (string, bool) {
	if user == "" {
		return s.home, s.home != ""
	}
	return "", false
}
func (s *stubEnviron) DirStack() []string { return s.dirStack }
func (s *stubEnviron) CallFunction(name string, args []string) (string, int, bool, error) {
	fn, ok := s.funcs[name]
	if !ok {
		return "", 0, false, nil
	}
	out, status := fn(args)
	return out, status, true, nil
}
func (s *stubEnviron) RunCapture(source string, splitLines bool) ([]string, int, error) {
	return []string{source}, 0, nil
}

func lit(s string) syntax.Word { return syntax.Word{syntax.Normal{Text: s}} }

// TestExpandWordVariable checks plain $name expansion, both for a scalar
// and for an array (joined on space), per spec.md §4.3.
func TestExpandWordVariable(t *testing.T) {
	c := qt.New(t)
	env := newStub()
	env.vars["name"] = value.Str("world")
	env.vars["arr"] = value.ArrStrings("a", "b", "c")

	fields, err := ExpandWord(syntax.Word{syntax.VarRef{Name: "name"}}, env)
	c.Assert(err, qt.IsNil)
	c.Assert(fields, qt.DeepEquals, []string{"world"})

	fields, err = ExpandWord(syntax.Word{syntax.VarRef{Name: "arr"}}, env)
	c.Assert(err, qt.IsNil)
	c.Assert(fields, qt.DeepEquals, []string{"a b c"})
}

// TestExpandWordArrayRefSelector checks @arr[1] indexing (spec.md §8,
// scenario 7: `let arr = [a b c]; echo @arr[1]` => "b").
func TestExpandWordArrayRefSelector(t *testing.T) {
	c := qt.New(t)
	env := newStub()
	env.vars["arr"] = value.ArrStrings("a", "b", "c")

	sel := &syntax.Selector{Kind: syntax.SelIndex, Index: 1}
	fields, err := ExpandWord(syntax.Word{syntax.ArrayRef{Name: "arr", Selector: sel}}, env)
	c.Assert(err, qt.IsNil)
	c.Assert(fields, qt.DeepEquals, []string{"b"})
}

// TestExpandWordUnsetVariableIsEmpty checks that an unset variable
// expands to the empty string rather than erroring (spec.md §4.3,
// "unset variables expand to empty").
func TestExpandWordUnsetVariableIsEmpty(t *testing.T) {
	c := qt.New(t)
	env := newStub()
	fields, err := ExpandWord(syntax.Word{syntax.VarRef{Name: "missing"}}, env)
	c.Assert(err, qt.IsNil)
	c.Assert(fields, qt.DeepEquals, []string{""})
}

// TestExpandBraceCartesian checks `{a,b}{1..2}` => "a1 a2 b1 b2" (spec.md
// §8, scenario 8).
func TestExpandBraceCartesian(t *testing.T) {
	c := qt.New(t)
	env := newStub()

	word := syntax.Word{
		syntax.BraceExpr{Alternatives: []syntax.Word{lit("a"), lit("b")}},
		syntax.BraceExpr{IsRange: true, Lo: "1", Hi: "2"},
	}
	fields, err := ExpandWord(word, env)
	c.Assert(err, qt.IsNil)
	c.Assert(fields, qt.DeepEquals, []string{"a1", "a2", "b1", "b2"})
}

// TestEvalArithPrecedence checks operator precedence and the required
// division-by-zero error (spec.md §4.3, "Arithmetic").
func TestEvalArithPrecedence(t *testing.T) {
	c := qt.New(t)
	env := newStub()

	// 2 + 3*2 == 8 (spec.md §8, scenario 2).
	expr := syntax.ArithBinOp{
		Op: syntax.OpAdd,
		X:  syntax.ArithLit{Text: "2"},
		Y: syntax.ArithBinOp{
			Op: syntax.OpMul,
			X:  syntax.ArithLit{Text: "3"},
			Y:  syntax.ArithLit{Text: "2"},
		},
	}
	got, err := EvalArith(expr, env)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, "8")

	divZero := syntax.ArithBinOp{
		Op: syntax.OpDiv,
		X:  syntax.ArithLit{Text: "1"},
		Y:  syntax.ArithLit{Text: "0"},
	}
	_, err = EvalArith(divZero, env)
	c.Assert(err, qt.Not(qt.IsNil))
}

// TestStringMethodsComposability checks testable property 7: for array A
// and element-count-preserving string methods m1/m2, m2(m1(@A)) equals
// element-wise application.
func TestStringMethodsComposability(t *testing.T) {
	c := qt.New(t)
	elems := []string{"Hello", "WORLD"}

	mid := make([]string, len(elems))
	for i, e := range elems {
		upper, err := StringMethod("to_uppercase", e, "", false)
		c.Assert(err, qt.IsNil)
		mid[i] = upper
	}
	composed := make([]string, len(mid))
	for i, m := range mid {
		rev, err := StringMethod("reverse", m, "", false)
		c.Assert(err, qt.IsNil)
		composed[i] = rev
	}

	elementwise := make([]string, len(elems))
	for i, e := range elems {
		upper, err := StringMethod("to_uppercase", e, "", false)
		c.Assert(err, qt.IsNil)
		rev, err := StringMethod("reverse", upper, "", false)
		c.Assert(err, qt.IsNil)
		elementwise[i] = rev
	}

	c.Assert(composed, qt.DeepEquals, elementwise)
}

// TestArrayMethodJoin checks an array method applied to an existing
// element slice (spec.md §4.3, "Array methods").
func TestArrayMethodJoin(t *testing.T) {
	c := qt.New(t)
	out, err := ArrayMethod("join", []string{"a", "b", "c"}, ",", true)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.DeepEquals, []string{"a,b,c"})
}

// TestResolveNamespaceHex checks the x::/hex:: namespace decodes two hex
// digits to the Unicode character they name (spec.md §4.3).
func TestResolveNamespaceHex(t *testing.T) {
	c := qt.New(t)
	env := newStub()

	hex, ok, err := ResolveNamespace(env, "x::41")
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(hex, qt.Equals, "A")

	_, ok, err = ResolveNamespace(env, "hex::e2")
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	_, ok, err = ResolveNamespace(env, "bogus::name")
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}

// TestResolveNamespaceColor checks the c::/color:: reserved namespace
// resolves known names without error; the literal escape bytes depend on
// fatih/color's own NO_COLOR detection, so only ok/err are asserted.
func TestResolveNamespaceColor(t *testing.T) {
	c := qt.New(t)
	env := newStub()

	_, ok, err := ResolveNamespace(env, "color::red")
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
}

// TestGlobNoMatchReturnsLiteral checks that a glob with no matches expands
// to the literal token unchanged, rather than vanishing (spec.md §4.3,
// "Globbing").
func TestGlobNoMatchReturnsLiteral(t *testing.T) {
	c := qt.New(t)
	pat := "/no/such/path/definitely-not-here-*.xyz"
	matches := Glob(pat)
	c.Assert(matches, qt.DeepEquals, []string{pat})
}
