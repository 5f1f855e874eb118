package refine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berth-dev/briefing/internal/ai"
	"github.com/berth-dev/briefing/internal/lang"
	"github.com/berth-dev/briefing/internal/llm"
	"github.com/berth-dev/briefing/internal/model"
	"github.com/berth-dev/briefing/internal/testutil"
)

func newRefiner(code string, gen *testutil.Generator) *Refiner {
	return New(ai.NewCaller(gen, lang.MustLookup(code), ai.DefaultSampling(), nil, nil), nil)
}

func TestRefineIdea(t *testing.T) {
	gen := testutil.NewGenerator("  Уточненная идея: мобильное приложение для изучения испанского.  ")
	answers := []model.Answer{
		{Question: "Это мобильное приложение?", Answer: "Да", Comment: "только Android"},
		{Question: "Нужна подписка?", Answer: "Нет"},
	}
	got, err := newRefiner("ru", gen).RefineIdea(context.Background(), "приложение для языков", answers)
	require.NoError(t, err)
	assert.Equal(t, "Уточненная идея: мобильное приложение для изучения испанского.", got)

	req := gen.Requests()[0]
	assert.Equal(t, "refine", req.Purpose)
	assert.Contains(t, req.Prompt, "- Это мобильное приложение?: Да")
	assert.Contains(t, req.Prompt, "- Нужна подписка?: Нет")
	assert.Contains(t, req.Prompt, `- On "Это мобильное приложение?": только Android`)
	assert.NotContains(t, req.Prompt, `On "Нужна подписка?"`)
	assert.Contains(t, req.Prompt, `"Уточненная идея:"`)
	assert.Equal(t, 0.6, req.Temperature)
}

func TestRefineIdea_EmptyReplyKeepsIdea(t *testing.T) {
	ctx, notes := ai.WithNotes(context.Background())
	got, err := newRefiner("en", testutil.NewGenerator("   ")).RefineIdea(ctx, "an app", nil)
	require.NoError(t, err)
	assert.Equal(t, "an app", got)
	assert.Len(t, notes.Drain(), 1)
}

func TestApplyFeedback(t *testing.T) {
	tests := []struct {
		feedback string
		purpose  string
		want     string
	}{
		{model.FeedbackCorrect, "", "current"},
		{model.FeedbackMostlyCorrect, "feedback_mostly_correct", "Improved idea: better"},
		{model.FeedbackMostlyIncorrect, "feedback_mostly_incorrect", "Improved idea: better"},
		{"sideways", "", "current"},
	}
	for _, tt := range tests {
		t.Run(tt.feedback, func(t *testing.T) {
			gen := testutil.NewGenerator("Improved idea: better")
			got, err := newRefiner("en", gen).ApplyFeedback(context.Background(), "idea", "current", tt.feedback, "add offline mode")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.purpose == "" {
				assert.Empty(t, gen.Requests())
				return
			}
			require.Len(t, gen.Requests(), 1)
			req := gen.Requests()[0]
			assert.Equal(t, tt.purpose, req.Purpose)
			assert.Contains(t, req.Prompt, "add offline mode")
			assert.Contains(t, req.Prompt, `"current"`)
		})
	}
}

func TestApplyFeedback_GeneratorError(t *testing.T) {
	gen := testutil.NewGenerator().Fail("feedback_mostly_incorrect", llm.ErrConnectivity)
	_, err := newRefiner("en", gen).ApplyFeedback(context.Background(), "idea", "current", model.FeedbackMostlyIncorrect, "")
	assert.ErrorIs(t, err, llm.ErrConnectivity)
}

func TestFinalReport(t *testing.T) {
	gen := testutil.NewGenerator("## Original idea\n...")
	got, err := newRefiner("en", gen).FinalReport(context.Background(), "idea", "refined", 2)
	require.NoError(t, err)
	assert.Equal(t, "## Original idea\n...", got)
	req := gen.Requests()[0]
	assert.Contains(t, req.Prompt, "Refinement iterations: 2")
	assert.Equal(t, 0.5, req.Temperature)
	assert.Contains(t, req.SystemPrompt, "final reports")
}

func TestComplexity(t *testing.T) {
	gen := testutil.NewGenerator(`{"technical_complexity": 4, "required_resources": 9, "implementation_time": 2,
  "overall_complexity": "high", "main_challenges": ["Speech recognition"]}`)
	got, err := newRefiner("en", gen).Complexity(context.Background(), "idea")
	require.NoError(t, err)
	assert.Equal(t, &ComplexityReport{
		Technical:   4,
		Resources:   DefaultScore,
		Time:        2,
		Knowledge:   DefaultScore,
		Overall:     "high",
		Description: "Further analysis required",
		Challenges:  []string{"Speech recognition"},
		Approach:    "Incremental delivery",
	}, got)
}

func TestComplexity_MalformedUsesDefault(t *testing.T) {
	ctx, notes := ai.WithNotes(context.Background())
	r := newRefiner("ru", testutil.NewGenerator("не могу"))
	got, err := r.Complexity(ctx, "идея")
	require.NoError(t, err)
	assert.Equal(t, r.DefaultComplexity(), got)
	assert.Equal(t, "средняя", got.Overall)
	assert.Equal(t, 3, got.Technical)
	assert.Len(t, notes.Drain(), 1)
}

func TestImprovements(t *testing.T) {
	gen := testutil.NewGenerator("Ideas:\n1. Add streaks\n2. Add voice chat\n- Offline packs\n3. Teacher mode\n4. Widgets\n5. Dark theme\n")
	got, err := newRefiner("en", gen).Improvements(context.Background(), "refined")
	require.NoError(t, err)
	assert.Equal(t, []string{"Add streaks", "Add voice chat", "Offline packs", "Teacher mode", "Widgets"}, got)
}

func TestDelegatedAnswer(t *testing.T) {
	gen := testutil.NewGenerator("Yes - offline mode helps commuters")
	profile := &model.CompetencyProfile{OverallLevel: model.LevelAdvanced}
	got, err := newRefiner("en", gen).DelegatedAnswer(context.Background(), "idea", "Should it work offline?", profile)
	require.NoError(t, err)
	assert.Equal(t, "Yes - offline mode helps commuters", got)
	req := gen.Requests()[0]
	assert.Contains(t, req.Prompt, "User competency level: advanced")
	assert.Equal(t, 300, req.MaxTokens)
	assert.Equal(t, 0.3, req.Temperature)

	gen = testutil.NewGenerator("")
	got, err = newRefiner("ru", gen).DelegatedAnswer(context.Background(), "идея", "Нужен офлайн?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Да - ИИ рекомендует положительный ответ", got)
	assert.NotContains(t, gen.Requests()[0].Prompt, "User competency level")

	gen = testutil.NewGenerator().Push(testutil.Reply{Err: llm.ErrConnectivity})
	_, err = newRefiner("en", gen).DelegatedAnswer(context.Background(), "idea", "Q?", nil)
	assert.ErrorIs(t, err, llm.ErrConnectivity)
}
