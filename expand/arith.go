package expand

import (
	"strconv"
	"strings"

	"rungo.sh/ion/syntax"
)

// num is an arithmetic intermediate value: either an int64 or a float64,
// promoted to float only when an operand or operator requires it (spec.md
// §4.3, "Arithmetic").
type num struct {
	isFloat bool
	i       int64
	f       float64
}

func intNum(i int64) num    { return num{i: i} }
func floatNum(f float64) num { return num{isFloat: true, f: f} }

func (n num) asFloat() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func (n num) String() string {
	if n.isFloat {
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	}
	return strconv.FormatInt(n.i, 10)
}

// EvalArith evaluates an arithmetic expression tree against env, resolving
// bare-identifier operands as variables.
func EvalArith(n syntax.ArithNode, env Environ) (string, error) {
	v, err := evalArith(n, env)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func evalArith(n syntax.ArithNode, env Environ) (num, error) {
	switch v := n.(type) {
	case syntax.ArithLit:
		return parseArithLit(v.Text)
	case syntax.ArithVar:
		val, ok := env.Get(v.Name)
		if !ok {
			return intNum(0), nil
		}
		return parseArithLit(strings.TrimSpace(val.String()))
	case syntax.ArithParen:
		return evalArith(v.X, env)
	case syntax.ArithUnaryMinus:
		x, err := evalArith(v.X, env)
		if err != nil {
			return num{}, err
		}
		if x.isFloat {
			return floatNum(-x.f), nil
		}
		return intNum(-x.i), nil
	case syntax.ArithBinOp:
		return evalBinOp(v, env)
	}
	return intNum(0), errf("malformed arithmetic expression")
}

func parseArithLit(text string) (num, error) {
	if text == "" {
		return intNum(0), nil
	}
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return intNum(i), nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return floatNum(f), nil
	}
	return num{}, errf("not a number: %q", text)
}

func evalBinOp(v syntax.ArithBinOp, env Environ) (num, error) {
	x, err := evalArith(v.X, env)
	if err != nil {
		return num{}, err
	}
	y, err := evalArith(v.Y, env)
	if err != nil {
		return num{}, err
	}

	switch v.Op {
	case syntax.OpBitOr, syntax.OpBitXor, syntax.OpBitAnd, syntax.OpShl, syntax.OpShr:
		if x.isFloat || y.isFloat {
			return num{}, errf("bitwise operator requires integer operands")
		}
		switch v.Op {
		case syntax.OpBitOr:
			return intNum(x.i | y.i), nil
		case syntax.OpBitXor:
			return intNum(x.i ^ y.i), nil
		case syntax.OpBitAnd:
			return intNum(x.i & y.i), nil
		case syntax.OpShl:
			return intNum(x.i << uint64(y.i)), nil
		case syntax.OpShr:
			return intNum(x.i >> uint64(y.i)), nil
		}
	case syntax.OpAdd:
		if x.isFloat || y.isFloat {
			return floatNum(x.asFloat() + y.asFloat()), nil
		}
		return intNum(x.i + y.i), nil
	case syntax.OpSub:
		if x.isFloat || y.isFloat {
			return floatNum(x.asFloat() - y.asFloat()), nil
		}
		return intNum(x.i - y.i), nil
	case syntax.OpMul:
		if x.isFloat || y.isFloat {
			return floatNum(x.asFloat() * y.asFloat()), nil
		}
		return intNum(x.i * y.i), nil
	case syntax.OpDiv:
		if !x.isFloat && !y.isFloat {
			if y.i == 0 {
				return num{}, errf("division by zero")
			}
			return intNum(x.i / y.i), nil
		}
		if y.asFloat() == 0 {
			return num{}, errf("division by zero")
		}
		return floatNum(x.asFloat() / y.asFloat()), nil
	case syntax.OpMod:
		if x.isFloat || y.isFloat {
			return num{}, errf("modulo requires integer operands")
		}
		if y.i == 0 {
			return num{}, errf("division by zero")
		}
		return intNum(x.i % y.i), nil
	case syntax.OpPow:
		return evalPow(x, y)
	}
	return num{}, errf("unsupported arithmetic operator")
}

func evalPow(x, y num) (num, error) {
	if !x.isFloat && !y.isFloat && y.i >= 0 {
		result := int64(1)
		base := x.i
		for e := y.i; e > 0; e-- {
			result *= base
		}
		return intNum(result), nil
	}
	result := 1.0
	base := x.asFloat()
	exp := y.asFloat()
	neg := exp < 0
	if neg {
		exp = -exp
	}
	for e := exp; e >= 1; e-- {
		result *= base
	}
	if neg {
		if result == 0 {
			return num{}, errf("division by zero")
		}
		result = 1 / result
	}
	return floatNum(result), nil
}
