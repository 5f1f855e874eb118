package lang

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berth-dev/briefing/internal/model"
)

func TestLookup(t *testing.T) {
	p, err := Lookup("en")
	require.NoError(t, err)
	assert.Equal(t, "en", p.Code)

	_, err = Lookup("fr")
	assert.Error(t, err)
	assert.Equal(t, []string{"en", "ru"}, Codes())
}

func TestPresets_Complete(t *testing.T) {
	for _, code := range Codes() {
		p := MustLookup(code)
		t.Run(code, func(t *testing.T) {
			assert.Len(t, p.Domains, 13)
			assert.Contains(t, p.Domains, p.GeneralDomain)
			assert.Len(t, p.FallbackCompetency, 3)
			for _, l := range model.Levels {
				assert.NotEmpty(t, p.LevelLabel(l))
				// Every display label must parse back to its level.
				assert.Equal(t, l, model.ParseLevel(p.LevelLabel(l)))
			}
			for _, group := range [][]string{p.ChoicePatterns, p.ComplexPatterns, p.ClosedPatterns} {
				for _, expr := range group {
					_, err := regexp.Compile(expr)
					assert.NoError(t, err, expr)
				}
			}
		})
	}
}

func TestFallbackCompetencyQuestions(t *testing.T) {
	qs := MustLookup("en").FallbackCompetencyQuestions("Cooking")
	require.Len(t, qs, 3)
	assert.Equal(t, "Do you have formal education in Cooking?", qs[0].Template)
}

func TestIsUnclear(t *testing.T) {
	p := MustLookup("ru")
	assert.True(t, p.IsUnclear("Не знаю"))
	assert.True(t, p.IsUnclear("Без разницы"))
	assert.False(t, p.IsUnclear("Да"))
}
