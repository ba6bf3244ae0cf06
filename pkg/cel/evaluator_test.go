package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluator(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	assert.NotNil(t, eval)
}

func TestValidateExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{name: "valid comparison", expr: `text_length > 3`},
		{name: "valid string function", expr: `class_name.contains("MessageText")`},
		{name: "non-bool expression", expr: `text + "x"`},
		{name: "invalid expression", expr: `invalid syntax here!!!`, wantError: true},
		{name: "undefined variable", expr: `payload.status == "x"`, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePredicate(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	assert.NoError(t, eval.ValidatePredicate(`text != ""`))
	assert.Error(t, eval.ValidatePredicate(`text_length + 1`))
	assert.Error(t, eval.ValidatePredicate(`text ==`))
}

func TestEvaluatePredicate(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	ctx := context.Background()

	facts := NodeFacts{
		Text:            "See you at the station",
		TextLength:      22,
		ClassName:       "android.widget.TextView",
		ParentClassName: "com.whatsapp.BubbleLayout",
	}

	tests := []struct {
		name  string
		expr  string
		facts NodeFacts
		want  bool
	}{
		{name: "heuristic equivalent on bubble", expr: PredicateExamples["heuristic_equivalent"], facts: facts, want: true},
		{name: "message text only", expr: PredicateExamples["message_text_only"], facts: facts, want: false},
		{name: "long bubbles", expr: PredicateExamples["long_bubbles"], facts: facts, want: true},
		{name: "empty text", expr: PredicateExamples["heuristic_equivalent"], facts: NodeFacts{ClassName: "MessageText"}, want: false},
		{name: "regex", expr: PredicateExamples["regex_match"], facts: facts, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluatePredicate(ctx, tt.expr, tt.facts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompilePredicate(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	_, err = eval.CompilePredicate(`text_length`)
	assert.Error(t, err)

	p, err := eval.CompilePredicate(`text_length > 3`)
	require.NoError(t, err)
	assert.Equal(t, `text_length > 3`, p.Expression())

	ok, err := p.Eval(context.Background(), NodeFacts{Text: "abcd", TextLength: 4})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllExamplesCompile(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	for name, expr := range PredicateExamples {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, eval.ValidatePredicate(expr))
		})
	}
}
