package codegen

import (
	"github.com/xplshn/blocksol/pkg/block"
	"github.com/xplshn/blocksol/pkg/config"
	"github.com/xplshn/blocksol/pkg/order"
	"github.com/xplshn/blocksol/pkg/util"
)

var mathEmitters = map[block.Type]Emitter{
	block.MathNumber:         {Value: emitNumber},
	block.MathArithmetic:     {Value: emitArithmetic},
	block.MathSingle:         {Value: emitSingle},
	block.MathRound:          {Value: emitSingle},
	block.MathTrig:           {Value: emitSingle},
	block.MathConstant:       {Value: emitConstant},
	block.MathNumberProperty: {Value: emitNumberProperty},
	block.MathChange:         {Statement: emitChange},
	block.MathOnList:         {Value: emitOnList},
	block.MathModulo:         {Value: emitModulo},
	block.MathConstrain:      {Value: emitConstrain},
	block.MathRandomInt:      {Value: emitRandomInt},
	block.MathRandomFloat:    {Value: emitRandomFloat},
}

func emitNumber(s *Session, b *block.Block) (string, order.Order) {
	f, ok := util.ParseNumber(b.FieldValue("NUM"))
	if !ok {
		s.warn(config.WarnBadNumber, b, "'%s' is not a number, using 0", b.FieldValue("NUM"))
	}
	return util.FormatNumber(f), order.Atomic
}

type operator struct {
	text string
	ord  order.Order
}

var arithmetic = map[string]operator{
	"ADD":      {" + ", order.Addition},
	"MINUS":    {" - ", order.Subtraction},
	"MULTIPLY": {" * ", order.Multiplication},
	"DIVIDE":   {" / ", order.Division},
	"POWER":    {"", order.Comma},
}

func emitArithmetic(s *Session, b *block.Block) (string, order.Order) {
	op, ok := arithmetic[b.FieldValue("OP")]
	if !ok {
		fail(b, ErrUnknownOperator, "'%s'", b.FieldValue("OP"))
	}
	a := s.ValueOr(b, "A", op.ord, "0")
	c := s.ValueOr(b, "B", op.ord, "0")
	if op.text == "" {
		return "Math.pow(" + a + ", " + c + ")", order.FunctionCall
	}
	return a + op.text + c, op.ord
}

// emitSingle covers the one-operand operators of math_single, math_round
// and math_trig.
func emitSingle(s *Session, b *block.Block) (string, order.Order) {
	op := b.FieldValue("OP")
	if op == "NEG" {
		arg := s.ValueOr(b, "NUM", order.UnaryNegation, "0")
		if arg[0] == '-' {
			// "--3" would be a decrement.
			arg = " " + arg
		}
		return "-" + arg, order.UnaryNegation
	}

	var arg string
	switch op {
	case "SIN", "COS", "TAN":
		arg = s.ValueOr(b, "NUM", order.Division, "0")
	default:
		arg = s.ValueOr(b, "NUM", order.None, "0")
	}

	switch op {
	case "ABS":
		return "Math.abs(" + arg + ")", order.FunctionCall
	case "ROOT":
		return "Math.sqrt(" + arg + ")", order.FunctionCall
	case "LN":
		return "Math.log(" + arg + ")", order.FunctionCall
	case "EXP":
		return "Math.exp(" + arg + ")", order.FunctionCall
	case "POW10":
		return "Math.pow(10," + arg + ")", order.FunctionCall
	case "ROUND":
		return "Math.round(" + arg + ")", order.FunctionCall
	case "ROUNDUP":
		return "Math.ceil(" + arg + ")", order.FunctionCall
	case "ROUNDDOWN":
		return "Math.floor(" + arg + ")", order.FunctionCall
	case "SIN":
		return "Math.sin(" + arg + " / 180 * Math.PI)", order.FunctionCall
	case "COS":
		return "Math.cos(" + arg + " / 180 * Math.PI)", order.FunctionCall
	case "TAN":
		return "Math.tan(" + arg + " / 180 * Math.PI)", order.FunctionCall
	case "LOG10":
		return "Math.log(" + arg + ") / Math.log(10)", order.Division
	case "ASIN":
		return "Math.asin(" + arg + ") / Math.PI * 180", order.Division
	case "ACOS":
		return "Math.acos(" + arg + ") / Math.PI * 180", order.Division
	case "ATAN":
		return "Math.atan(" + arg + ") / Math.PI * 180", order.Division
	}
	fail(b, ErrUnknownOperator, "math operator '%s'", op)
	return "", order.None
}

var constants = map[string]operator{
	"PI":           {"Math.PI", order.Member},
	"E":            {"Math.E", order.Member},
	"GOLDEN_RATIO": {"(1 + Math.sqrt(5)) / 2", order.Division},
	"SQRT2":        {"Math.SQRT2", order.Member},
	"SQRT1_2":      {"Math.SQRT1_2", order.Member},
	"INFINITY":     {"Infinity", order.Atomic},
}

func emitConstant(s *Session, b *block.Block) (string, order.Order) {
	c, ok := constants[b.FieldValue("CONSTANT")]
	if !ok {
		fail(b, ErrUnknownOperator, "constant '%s'", b.FieldValue("CONSTANT"))
	}
	return c.text, c.ord
}

func emitNumberProperty(s *Session, b *block.Block) (string, order.Order) {
	n := s.ValueOr(b, "NUMBER_TO_CHECK", order.Modulus, "0")
	prop := b.FieldValue("PROPERTY")
	switch prop {
	case "PRIME":
		name := s.ProvideFunction("mathIsPrime", isPrimeHelper)
		return name + "(" + n + ")", order.FunctionCall
	case "EVEN":
		return n + " % 2 == 0", order.Equality
	case "ODD":
		return n + " % 2 == 1", order.Equality
	case "WHOLE":
		return n + " % 1 == 0", order.Equality
	case "POSITIVE":
		return n + " > 0", order.Equality
	case "NEGATIVE":
		return n + " < 0", order.Equality
	case "DIVISIBLE_BY":
		d := s.ValueOr(b, "DIVISOR", order.Modulus, "0")
		return n + " % " + d + " == 0", order.Equality
	}
	fail(b, ErrUnknownOperator, "number property '%s'", prop)
	return "", order.None
}

func emitChange(s *Session, b *block.Block) string {
	delta := s.ValueOr(b, "DELTA", order.Addition, "0")
	name, ok := s.localName(b)
	if !ok {
		return ""
	}
	return name + " = (typeof " + name + " == 'number' ? " + name + " : 0) + " + delta + ";\n"
}

var listHelpers = map[string]struct {
	name  string
	lines []string
}{
	"AVERAGE": {"mathMean", meanHelper},
	"MEDIAN":  {"mathMedian", medianHelper},
	"MODE":    {"mathModes", modesHelper},
	"STD_DEV": {"mathStandardDeviation", stdDevHelper},
	"RANDOM":  {"mathRandomList", randomListHelper},
}

func emitOnList(s *Session, b *block.Block) (string, order.Order) {
	op := b.FieldValue("OP")
	switch op {
	case "SUM":
		list := s.ValueOr(b, "LIST", order.Member, "[]")
		return list + ".reduce(function(x, y) {return x + y;})", order.FunctionCall
	case "MIN":
		return "Math.min.apply(null, " + s.ValueOr(b, "LIST", order.Comma, "[]") + ")", order.FunctionCall
	case "MAX":
		return "Math.max.apply(null, " + s.ValueOr(b, "LIST", order.Comma, "[]") + ")", order.FunctionCall
	}
	h, ok := listHelpers[op]
	if !ok {
		fail(b, ErrUnknownOperator, "list operator '%s'", op)
	}
	name := s.ProvideFunction(h.name, h.lines)
	return name + "(" + s.ValueOr(b, "LIST", order.None, "[]") + ")", order.FunctionCall
}

func emitModulo(s *Session, b *block.Block) (string, order.Order) {
	a := s.ValueOr(b, "DIVIDEND", order.Modulus, "0")
	d := s.ValueOr(b, "DIVISOR", order.Modulus, "0")
	return a + " % " + d, order.Modulus
}

func emitConstrain(s *Session, b *block.Block) (string, order.Order) {
	v := s.ValueOr(b, "VALUE", order.Comma, "0")
	lo := s.ValueOr(b, "LOW", order.Comma, "0")
	hi := s.ValueOr(b, "HIGH", order.Comma, "Infinity")
	return "Math.min(Math.max(" + v + ", " + lo + "), " + hi + ")", order.FunctionCall
}

func emitRandomInt(s *Session, b *block.Block) (string, order.Order) {
	from := s.ValueOr(b, "FROM", order.Comma, "0")
	to := s.ValueOr(b, "TO", order.Comma, "0")
	name := s.ProvideFunction("mathRandomInt", randomIntHelper)
	return name + "(" + from + ", " + to + ")", order.FunctionCall
}

func emitRandomFloat(s *Session, b *block.Block) (string, order.Order) {
	return "Math.random()", order.FunctionCall
}
