package block

// Undefined is the value of a selector that has not picked a symbol yet.
const Undefined = "__UNDEFINED__"

type FieldDef struct {
	Name     string
	Default  string
	Editable bool
	Options  []Option
}

type InputDef struct {
	Name  string
	Kind  InputKind
	Check []string
}

// Definition is the shape of a block type: its fields, inputs and the
// checks on its connections. A nil check accepts anything.
type Definition struct {
	Fields      []FieldDef
	Inputs      []InputDef
	HasOutput   bool
	OutputCheck []string
	HasPrevious bool
	PrevCheck   []string
	HasNext     bool
	NextCheck   []string
}

var typeOptions = []Option{{"bool", "TYPE_BOOL"}, {"int", "TYPE_INT"}, {"uint", "TYPE_UINT"}}

func checks(c ...string) []string { return c }

func text(name, def string) FieldDef { return FieldDef{Name: name, Default: def, Editable: true} }

func dropdown(name string, opts ...Option) FieldDef {
	return FieldDef{Name: name, Default: opts[0].Value, Options: opts}
}

func value(name string, check ...string) InputDef {
	if len(check) == 0 {
		check = nil
	}
	return InputDef{Name: name, Kind: InputValue, Check: check}
}

func statement(name string, check ...string) InputDef {
	if len(check) == 0 {
		check = nil
	}
	return InputDef{Name: name, Kind: InputStatement, Check: check}
}

func numberOutput(fields []FieldDef, inputs ...InputDef) Definition {
	return Definition{Fields: fields, Inputs: inputs, HasOutput: true, OutputCheck: checks("Number")}
}

func chained(check []string, fields []FieldDef, inputs ...InputDef) Definition {
	return Definition{
		Fields: fields, Inputs: inputs,
		HasPrevious: true, PrevCheck: check,
		HasNext: true, NextCheck: check,
	}
}

// Definitions holds the shape of every block type.
var Definitions = map[Type]Definition{
	Contract: {
		Fields: []FieldDef{text("NAME", "MyContract")},
		Inputs: []InputDef{
			statement("STATES", "contract_state"),
			statement("CTOR", "contract_ctor"),
			statement("METHODS", "contract_method"),
		},
	},
	ContractState: chained(checks("contract_state"),
		[]FieldDef{dropdown("TYPE", typeOptions...), text("NAME", "a")},
		value("VALUE")),
	ContractStateGet: {
		Fields:    []FieldDef{dropdown("STATE_NAME", Option{"select state...", Undefined})},
		HasOutput: true,
	},
	ContractStateSet: chained(nil,
		[]FieldDef{dropdown("STATE_NAME", Option{"select state...", Undefined})},
		value("STATE_VALUE")),
	ContractMethod: chained(checks("contract_method"),
		[]FieldDef{text("NAME", "myMethod")},
		statement("PARAMS", "contract_method_parameter"),
		statement("STACK")),
	ContractCtor: {
		Inputs: []InputDef{
			statement("PARAMS", "contract_method_parameter"),
			statement("STACK"),
		},
		HasPrevious: true, PrevCheck: checks("contract_ctor"),
	},
	ContractMethodParameter: chained(checks("contract_method_parameter"),
		[]FieldDef{dropdown("TYPE", typeOptions...), text("NAME", "a")}),
	ContractMethodParameterGet: {
		Fields:    []FieldDef{dropdown("PARAM_NAME", Option{"select param...", Undefined})},
		HasOutput: true,
	},
	ContractMethodCall: chained(nil,
		[]FieldDef{dropdown("METHOD_NAME", Option{"select method...", Undefined})}),
	ContractIntrinsicSha3: {
		Inputs:    []InputDef{value("VALUE")},
		HasOutput: true,
	},

	MathNumber: numberOutput([]FieldDef{text("NUM", "0")}),
	MathArithmetic: numberOutput(
		[]FieldDef{dropdown("OP", Option{"+", "ADD"}, Option{"-", "MINUS"}, Option{"×", "MULTIPLY"},
			Option{"÷", "DIVIDE"}, Option{"^", "POWER"})},
		value("A", "Number"), value("B", "Number")),
	MathSingle: numberOutput(
		[]FieldDef{dropdown("OP", Option{"square root", "ROOT"}, Option{"absolute", "ABS"}, Option{"-", "NEG"},
			Option{"ln", "LN"}, Option{"log10", "LOG10"}, Option{"e^", "EXP"}, Option{"10^", "POW10"})},
		value("NUM", "Number")),
	MathRound: numberOutput(
		[]FieldDef{dropdown("OP", Option{"round", "ROUND"}, Option{"round up", "ROUNDUP"},
			Option{"round down", "ROUNDDOWN"})},
		value("NUM", "Number")),
	MathTrig: numberOutput(
		[]FieldDef{dropdown("OP", Option{"sin", "SIN"}, Option{"cos", "COS"}, Option{"tan", "TAN"},
			Option{"asin", "ASIN"}, Option{"acos", "ACOS"}, Option{"atan", "ATAN"})},
		value("NUM", "Number")),
	MathConstant: numberOutput(
		[]FieldDef{dropdown("CONSTANT", Option{"π", "PI"}, Option{"e", "E"}, Option{"φ", "GOLDEN_RATIO"},
			Option{"sqrt(2)", "SQRT2"}, Option{"sqrt(½)", "SQRT1_2"}, Option{"∞", "INFINITY"})}),
	MathNumberProperty: {
		Fields: []FieldDef{dropdown("PROPERTY", Option{"even", "EVEN"}, Option{"odd", "ODD"},
			Option{"prime", "PRIME"}, Option{"whole", "WHOLE"}, Option{"positive", "POSITIVE"},
			Option{"negative", "NEGATIVE"}, Option{"divisible by", "DIVISIBLE_BY"})},
		Inputs:      []InputDef{value("NUMBER_TO_CHECK", "Number"), value("DIVISOR", "Number")},
		HasOutput:   true,
		OutputCheck: checks("Boolean"),
	},
	MathChange: chained(nil,
		[]FieldDef{dropdown("VAR", Option{"select variable...", Undefined})},
		value("DELTA", "Number")),
	MathOnList: numberOutput(
		[]FieldDef{dropdown("OP", Option{"sum", "SUM"}, Option{"min", "MIN"}, Option{"max", "MAX"},
			Option{"average", "AVERAGE"}, Option{"median", "MEDIAN"}, Option{"modes", "MODE"},
			Option{"standard deviation", "STD_DEV"}, Option{"random item", "RANDOM"})},
		value("LIST", "Array")),
	MathModulo:      numberOutput(nil, value("DIVIDEND", "Number"), value("DIVISOR", "Number")),
	MathConstrain:   numberOutput(nil, value("VALUE", "Number"), value("LOW", "Number"), value("HIGH", "Number")),
	MathRandomInt:   numberOutput(nil, value("FROM", "Number"), value("TO", "Number")),
	MathRandomFloat: numberOutput(nil),

	VariablesGet: {
		Fields:    []FieldDef{dropdown("VAR", Option{"select variable...", Undefined})},
		HasOutput: true,
	},
	VariablesSet: chained(nil,
		[]FieldDef{dropdown("VAR", Option{"select variable...", Undefined})},
		value("VALUE")),
}

// instantiate builds a detached block of type t from its definition.
func instantiate(t Type, id string) *Block {
	def := Definitions[t]
	b := &Block{
		ID: id, Type: t,
		HasOutput: def.HasOutput, OutputCheck: def.OutputCheck,
		HasPrevious: def.HasPrevious, PrevCheck: def.PrevCheck,
		HasNext: def.HasNext, NextCheck: def.NextCheck,
	}
	for _, fd := range def.Fields {
		f := &Field{Name: fd.Name, Editable: fd.Editable, value: fd.Default, text: fd.Default}
		if len(fd.Options) > 0 {
			f.options = append([]Option(nil), fd.Options...)
			f.text = fd.Options[0].Text
		}
		b.Fields = append(b.Fields, f)
	}
	for _, in := range def.Inputs {
		b.Inputs = append(b.Inputs, &Input{Name: in.Name, Kind: in.Kind, Check: in.Check})
	}
	return b
}
