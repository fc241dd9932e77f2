package validate

import (
	"errors"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestResponse(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantRule Rule
	}{
		{name: "empty string", text: "", wantRule: RuleNonEmpty},
		{name: "punctuation only", text: "?!... 404", wantRule: RuleHasLetters},
		{name: "whitespace only", text: "   \n\t ", wantRule: RuleHasLetters},
		{name: "latin only", text: "This is not the required language.", wantRule: RuleTargetScript},
		{name: "adapter sentinel text", text: "Error getting response from openai: connection refused", wantRule: RuleTargetScript},
		{name: "cyrillic response", text: "Предлагаю объединить усилия моделей."},
		{name: "single stray cyrillic letter", text: "Mostly English with one я inside."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Response("openai", tt.text, DefaultScript)
			if tt.wantRule == "" {
				assert.NoError(t, err)
				return
			}
			var ruleErr *RuleError
			require.ErrorAs(t, err, &ruleErr)
			assert.Equal(t, tt.wantRule, ruleErr.Rule)
			assert.Equal(t, "openai", ruleErr.Backend)
		})
	}
}

func TestResponse_CustomScript(t *testing.T) {
	// The script check is parameterizable; Greek as the target rejects
	// Cyrillic and accepts Greek.
	err := Response("b", "Кириллица здесь", unicode.Greek)
	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, RuleTargetScript, ruleErr.Rule)

	assert.NoError(t, Response("b", "καλημέρα", unicode.Greek))
}

func TestFinalResponse_MinWords(t *testing.T) {
	short := "Краткий ответ из пяти слов всего."
	err := FinalResponse("gigachat", short, DefaultScript, 20)
	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, RuleMinWords, ruleErr.Rule)
	assert.Equal(t, "gigachat", ruleErr.Backend)

	long := "Предлагаю объединить технические педагогические и пользовательские решения в единую платформу " +
		"чтобы дети получали качественное образование через удобный интерфейс с надёжной инфраструктурой и проверенной методикой обучения"
	require.GreaterOrEqual(t, WordCount(long), 20)
	assert.NoError(t, FinalResponse("gigachat", long, DefaultScript, 20))
}

func TestFinalResponse_OrderOfChecks(t *testing.T) {
	// Earlier rules win: an empty final reports non_empty, not min_words.
	err := FinalResponse("ollama", "", DefaultScript, 20)
	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, RuleNonEmpty, ruleErr.Rule)
}

func TestUniqueFinals(t *testing.T) {
	t.Run("all distinct", func(t *testing.T) {
		err := UniqueFinals([]Final{
			{Backend: "openai", Text: "первый"},
			{Backend: "ollama", Text: "второй"},
			{Backend: "gigachat", Text: "третий"},
		})
		assert.NoError(t, err)
	})

	t.Run("duplicate reported against later backend", func(t *testing.T) {
		err := UniqueFinals([]Final{
			{Backend: "openai", Text: "одинаковый ответ"},
			{Backend: "ollama", Text: "другой ответ"},
			{Backend: "gigachat", Text: "одинаковый ответ"},
		})
		var ruleErr *RuleError
		require.ErrorAs(t, err, &ruleErr)
		assert.Equal(t, RuleUniqueFinals, ruleErr.Rule)
		assert.Equal(t, "gigachat", ruleErr.Backend)
	})

	t.Run("empty set", func(t *testing.T) {
		assert.NoError(t, UniqueFinals(nil))
	})
}

func TestRuleError_Excerpt(t *testing.T) {
	long := make([]rune, 200)
	for i := range long {
		long[i] = 'ж'
	}
	err := &RuleError{Rule: RuleMinWords, Backend: "openai", Value: string(long)}
	msg := err.Error()
	assert.Contains(t, msg, "openai")
	assert.Contains(t, msg, string(RuleMinWords))
	assert.Less(t, len(msg), 400)
}

// Property: for any text without a Cyrillic rune the script check fails, and
// adding a single Cyrillic rune anywhere makes it pass.
func TestContainsScript_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := rapid.StringOfN(rapid.RuneFrom(nil, unicode.Latin, unicode.Number, unicode.Space), 0, 64, -1).Draw(t, "base")
		require.False(t, ContainsScript(base, unicode.Cyrillic))

		cyr := rapid.RuneFrom(nil, unicode.Cyrillic).Draw(t, "cyr")
		pos := rapid.IntRange(0, len(base)).Draw(t, "pos")
		withCyr := base[:pos] + string(cyr) + base[pos:]
		require.True(t, ContainsScript(withCyr, unicode.Cyrillic))
	})
}

func TestErrorsAs(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), &RuleError{Rule: RuleNonEmpty, Backend: "b"})
	var ruleErr *RuleError
	assert.True(t, errors.As(wrapped, &ruleErr))
}
