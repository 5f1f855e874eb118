package competency

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berth-dev/briefing/internal/ai"
	"github.com/berth-dev/briefing/internal/lang"
	"github.com/berth-dev/briefing/internal/llm"
	"github.com/berth-dev/briefing/internal/model"
	"github.com/berth-dev/briefing/internal/testutil"
	"github.com/berth-dev/briefing/internal/validate"
)

func newAnalyzer(code string, gen *testutil.Generator) *Analyzer {
	p := lang.MustLookup(code)
	return New(ai.NewCaller(gen, p, ai.DefaultSampling(), nil, nil), validate.MustNew(p), 5, nil)
}

func TestDomainAnalysis(t *testing.T) {
	gen := testutil.NewGenerator("```json\n" + `{
  "primary_domain": "Education",
  "secondary_domains": ["Technology/IT"],
  "complexity_level": "medium",
  "requires_technical_knowledge": true,
  "requires_specialized_knowledge": false,
  "domain_description": "Language teaching methods"
}` + "\n```")
	da, err := newAnalyzer("en", gen).DomainAnalysis(context.Background(), "a language-learning app")
	require.NoError(t, err)
	assert.Equal(t, "Education", da.PrimaryDomain)
	assert.Equal(t, []string{"Technology/IT"}, da.SecondaryDomains)
	assert.True(t, da.RequiresTechnicalKnowledge)
	assert.Equal(t, "Language teaching methods", da.DomainDescription)
}

func TestDomainAnalysis_MalformedFallsBackToGeneral(t *testing.T) {
	gen := testutil.NewGenerator("I think this is about education.")
	ctx, notes := ai.WithNotes(context.Background())

	da, err := newAnalyzer("ru", gen).DomainAnalysis(ctx, "приложение")
	require.NoError(t, err)
	assert.Equal(t, "Общая", da.PrimaryDomain)
	assert.Equal(t, "средняя", da.ComplexityLevel)

	got := notes.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, ai.NoteFallback, got[0].Kind)
	assert.Equal(t, "domain_analysis", got[0].Component)
}

func TestDomainAnalysis_ConnectivityPropagates(t *testing.T) {
	gen := testutil.NewGenerator().Push(testutil.Reply{Err: llm.ErrConnectivity})
	_, err := newAnalyzer("en", gen).DomainAnalysis(context.Background(), "x")
	assert.ErrorIs(t, err, llm.ErrConnectivity)
}

func TestContextQuestions(t *testing.T) {
	gen := testutil.NewGenerator("Here you go:\n1. Who is the audience?\n2. Which languages?\n3. Is it free?\nThanks")
	qs, err := newAnalyzer("en", gen).ContextQuestions(context.Background(), "app")
	require.NoError(t, err)
	// Open questions are kept: they are for internal reasoning only.
	assert.Equal(t, []string{"Who is the audience?", "Which languages?", "Is it free?"}, qs)

	gen = testutil.NewGenerator("nothing numbered")
	qs, err = newAnalyzer("en", gen).ContextQuestions(context.Background(), "app")
	require.NoError(t, err)
	assert.Empty(t, qs)
}

func TestRequiredCompetencies(t *testing.T) {
	gen := testutil.NewGenerator(`{"domain": "Education", "competencies": ["Pedagogy"], "knowledge": "Linguistics", "skills": [], "experience": ["Teaching"]}`)
	a := newAnalyzer("en", gen)
	req, err := a.RequiredCompetencies(context.Background(), "app", []string{"Who is the audience?"})
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, "Education", req.Domain)
	assert.Equal(t, []string{"Linguistics"}, req.Knowledge)
	assert.Empty(t, req.Skills)

	prompt := gen.Requests()[0].Prompt
	assert.Contains(t, prompt, "1. Who is the audience?")
}

func TestRequiredCompetencies_MalformedReturnsNil(t *testing.T) {
	gen := testutil.NewGenerator("sorry")
	a := newAnalyzer("ru", gen)
	req, err := a.RequiredCompetencies(context.Background(), "app", nil)
	require.NoError(t, err)
	assert.Nil(t, req)

	def := a.DefaultRequired("Кулинария")
	assert.Equal(t, "Кулинария", def.Domain)
	assert.NotEmpty(t, def.Competencies)
	assert.Equal(t, "Общая", a.DefaultRequired("").Domain)
}

func TestAssessmentQuestions(t *testing.T) {
	gen := testutil.NewGenerator(`[
  {"text": "Do you have a CS degree?", "category": "education", "weight": "high"},
  {"text": "What languages do you speak?", "category": "knowledge"},
  {"text": "Have you built software before?", "category": "experience"},
  {"category": "no text"},
  "stray string"
]`)
	ctx, notes := ai.WithNotes(context.Background())
	qs, err := newAnalyzer("en", gen).AssessmentQuestions(ctx, "app", &model.RequiredCompetencies{Domain: "Education"})
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "Do you have a CS degree?", qs[0].Text)
	assert.Equal(t, "high", qs[0].Weight)
	assert.Equal(t, "medium", qs[1].Weight)

	got := notes.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, ai.NoteRejected, got[0].Kind)
	assert.Equal(t, "What languages do you speak?", got[0].Question)
}

func TestAssessmentQuestions_Fallbacks(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"malformed", "no idea"},
		{"object instead of array", `{"text": "Do you cook?"}`},
		{"none valid", `[{"text": "How often do you cook?"}, {"text": "Which cuisine?"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAnalyzer("ru", testutil.NewGenerator(tt.reply))
			qs, err := a.AssessmentQuestions(context.Background(), "рецепты", &model.RequiredCompetencies{Domain: "Кулинария"})
			require.NoError(t, err)
			require.Len(t, qs, 3)
			assert.Equal(t, "Есть ли у вас образование в области Кулинария?", qs[0].Text)
			for _, q := range qs {
				assert.True(t, validate.MustNew(lang.MustLookup("ru")).IsClosedForm(q.Text), q.Text)
			}
		})
	}
}

func TestAssessmentQuestions_CapsCount(t *testing.T) {
	reply := `[` +
		`{"text": "Is it A?"}, {"text": "Is it B?"}, {"text": "Is it C?"},` +
		`{"text": "Is it D?"}, {"text": "Is it E?"}, {"text": "Is it F?"}]`
	qs, err := newAnalyzer("en", testutil.NewGenerator(reply)).AssessmentQuestions(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Len(t, qs, 5)
}

func TestBuildProfile(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  model.Level
	}{
		{"russian label", "продвинутый", model.LevelAdvanced},
		{"canonical id", "expert", model.LevelExpert},
		{"unknown label", "guru", model.LevelBasic},
		{"missing label", "", model.LevelBasic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := `{"overall_level": "` + tt.level + `",
  "competency_analysis": {"education_level": "высшее", "practical_experience": "средний"},
  "strengths": ["Программирование"], "gaps": ["Методика"],
  "question_strategy": {"complexity_level": "сложные", "explanation_needed": false},
  "profile_summary": "Опытный разработчик"}`
			a := newAnalyzer("ru", testutil.NewGenerator(reply))
			p, err := a.BuildProfile(context.Background(), "приложение", nil, &model.RequiredCompetencies{Domain: "Образование"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.OverallLevel)
			assert.Equal(t, "Образование", p.Domain)
			assert.Equal(t, "высшее", p.EducationLevel)
			assert.Equal(t, "сложные", p.QuestionStrategy.ComplexityLevel)
			assert.Equal(t, "базовая", p.QuestionStrategy.TerminologyUsage)
			assert.False(t, p.QuestionStrategy.ExplanationNeeded)
			assert.True(t, p.QuestionStrategy.ExamplesNeeded)
		})
	}
}

func TestBuildProfile_LanguageAppScenario(t *testing.T) {
	answers := []model.Answer{
		{Question: "Do you have a CS degree?", Answer: "No"},
		{Question: "Have you built software before?", Answer: "Yes"},
	}
	for _, reply := range []string{
		`{"overall_level": "somewhere in between", "profile_summary": "mixed"}`,
		`{"overall_level": 3}`,
		"not json",
	} {
		gen := testutil.NewGenerator(reply)
		a := newAnalyzer("en", gen)
		p, err := a.BuildProfile(context.Background(), "a language-learning app", answers, &model.RequiredCompetencies{Domain: "Education"})
		require.NoError(t, err)
		assert.True(t, p.OverallLevel.Valid(), "level %q", p.OverallLevel)
		assert.Equal(t, model.LevelBasic, p.OverallLevel)

		prompt := gen.Requests()[0].Prompt
		assert.Contains(t, prompt, "- Do you have a CS degree?: No")
		assert.Contains(t, prompt, "- Have you built software before?: Yes")
	}
}

func TestBuildProfile_MalformedUsesDefault(t *testing.T) {
	ctx, notes := ai.WithNotes(context.Background())
	a := newAnalyzer("ru", testutil.NewGenerator("ошибка"))
	p, err := a.BuildProfile(ctx, "идея", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, a.DefaultProfile("Общая"), p)
	assert.True(t, p.QuestionStrategy.ExplanationNeeded)
	assert.True(t, p.QuestionStrategy.ExamplesNeeded)
	assert.Len(t, notes.Drain(), 1)
}

func TestBuildProfile_GeneratorError(t *testing.T) {
	boom := errors.New("down")
	gen := testutil.NewGenerator().Push(testutil.Reply{Err: boom})
	_, err := newAnalyzer("en", gen).BuildProfile(context.Background(), "x", nil, nil)
	assert.ErrorIs(t, err, boom)
}
