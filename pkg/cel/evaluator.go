package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
)

// NodeFacts are the variables a node predicate can see.
type NodeFacts struct {
	Text               string
	TextLength         int
	ClassName          string
	ParentClassName    string
	ContentDescription string
}

func (f NodeFacts) vars() map[string]interface{} {
	return map[string]interface{}{
		"text":                f.Text,
		"text_length":         int64(f.TextLength),
		"class_name":          f.ClassName,
		"parent_class_name":   f.ParentClassName,
		"content_description": f.ContentDescription,
	}
}

type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("text", cel.StringType),
		cel.Variable("text_length", cel.IntType),
		cel.Variable("class_name", cel.StringType),
		cel.Variable("parent_class_name", cel.StringType),
		cel.Variable("content_description", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

func (e *Evaluator) ValidateExpression(expression string) error {
	_, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}
	return nil
}

func (e *Evaluator) ValidatePredicate(expression string) error {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return fmt.Errorf("predicate expression must return bool, got %v", ast.OutputType())
	}

	return nil
}

// Predicate is a compiled boolean expression, safe for concurrent use.
type Predicate struct {
	expression string
	program    cel.Program
}

func (p *Predicate) Expression() string {
	return p.expression
}

func (p *Predicate) Eval(ctx context.Context, facts NodeFacts) (bool, error) {
	result, _, err := p.program.ContextEval(ctx, facts.vars())
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}

func (e *Evaluator) CompilePredicate(expression string) (*Predicate, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("predicate expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &Predicate{expression: expression, program: program}, nil
}

// EvaluatePredicate compiles and runs expression in one step.
func (e *Evaluator) EvaluatePredicate(ctx context.Context, expression string, facts NodeFacts) (bool, error) {
	p, err := e.CompilePredicate(expression)
	if err != nil {
		return false, err
	}
	return p.Eval(ctx, facts)
}
