package config

import (
	"encoding/json"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/netmock/pkg/mock"
)

// conditionEnv is what a "when" expression can see.
type conditionEnv struct {
	Method    string            `expr:"method"`
	URL       string            `expr:"url"`
	Query     map[string]string `expr:"query"`
	Params    map[string]string `expr:"params"`
	Headers   map[string]string `expr:"headers"`
	Body      any               `expr:"body"`
	CallCount int               `expr:"callCount"`
}

func compileCondition(code string) (*vm.Program, error) {
	program, err := expr.Compile(code, expr.Env(conditionEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid when expression %q: %w", code, err)
	}
	return program, nil
}

func newConditionEnv(ctx *mock.Context, meta mock.Meta) conditionEnv {
	env := conditionEnv{
		Query:     ctx.Query,
		Params:    ctx.Params,
		Headers:   ctx.Headers,
		Body:      conditionBody(ctx.Body),
		CallCount: meta.CallCount,
	}
	if ctx.Raw != nil {
		env.Method = ctx.Raw.MethodName()
		env.URL = ctx.Raw.FullURL()
	}
	return env
}

// conditionBody exposes JSON text bodies as decoded values so expressions
// can reach into them. Anything else is passed as-is.
func conditionBody(body any) any {
	var text []byte
	switch b := body.(type) {
	case string:
		text = []byte(b)
	case []byte:
		text = b
	default:
		return body
	}
	var decoded any
	if err := json.Unmarshal(text, &decoded); err != nil {
		return string(text)
	}
	return decoded
}

func evalCondition(program *vm.Program, env conditionEnv) (bool, error) {
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	ok, _ := out.(bool)
	return ok, nil
}
