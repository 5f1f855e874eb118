package orchestrator

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/berth-dev/briefing/internal/config"
	"github.com/berth-dev/briefing/internal/llm"
	"github.com/berth-dev/briefing/internal/log"
	"github.com/berth-dev/briefing/internal/model"
	"github.com/berth-dev/briefing/internal/session"
	"github.com/berth-dev/briefing/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const idea = "I want to build a language-learning app"

var rounds = [][]string{
	{
		"Will the app support offline lessons?",
		"Do you plan to add speech recognition?",
		"Should learners earn badges for streaks?",
		"Is a free tier required at launch?",
		"Will teachers create their own courses?",
		"Does the app need push reminders?",
		"Is social login important to you?",
	},
	{
		"Should lessons adapt to learner mistakes?",
		"Will there be live tutoring sessions?",
		"Do you want a web version as well?",
		"Is content moderation needed for forums?",
		"Will the app track vocabulary progress?",
		"Should parents see their children's results?",
		"Does the launch target a single country?",
	},
	{
		"Will you charge a monthly subscription?",
		"Should companies buy licences for staff?",
		"Is advertising acceptable in the free version?",
		"Do you expect to sell printed workbooks?",
		"Will revenue come mainly from app stores?",
		"Should prices differ between regions?",
		"Does the budget cover paid marketing?",
	},
}

type memEvents struct {
	mu     sync.Mutex
	events []log.LogEvent
}

func (m *memEvents) Append(ev log.LogEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memEvents) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ev := range m.events {
		if ev.Event == kind {
			n++
		}
	}
	return n
}

func adaptiveReply(qs []string) string {
	items := make([]map[string]any, 0, len(qs))
	for _, q := range qs {
		items = append(items, map[string]any{"text": q, "explanation": "", "examples": []string{}})
	}
	b, _ := json.Marshal(items)
	return string(b)
}

// briefingHandler answers every prompt of a complete interview.
func briefingHandler() func(req llm.Request) (string, error) {
	var mu sync.Mutex
	round := 0
	return func(req llm.Request) (string, error) {
		switch req.Purpose {
		case "domain_analysis":
			return `{"primary_domain":"Education","secondary_domains":["Technology/IT"],"complexity_level":"medium","domain_description":"Language learning"}`, nil
		case "context_questions":
			return "1. Who are the learners?\n2. Which languages will be taught?", nil
		case "required_competencies":
			return `{"domain":"Education","competencies":["pedagogy"],"knowledge":["linguistics"],"skills":["product design"],"experience":["teaching"]}`, nil
		case "assessment_questions":
			return `[{"text":"Have you taught a language before?","category":"experience","weight":"high"},
{"text":"Are you familiar with spaced repetition?","category":"knowledge"}]`, nil
		case "profile":
			return `{"overall_level":"intermediate","competency_analysis":{"education_level":"bachelor"},
"strengths":["software"],"gaps":["pedagogy"],
"question_strategy":{"complexity_level":"medium","terminology_usage":"moderate","explanation_needed":true,"examples_needed":false},
"profile_summary":"Developer new to teaching"}`, nil
		case "adaptive_questions":
			mu.Lock()
			qs := rounds[round%len(rounds)]
			round++
			mu.Unlock()
			return adaptiveReply(qs), nil
		case "delegated_answer":
			return "Spaced repetition schedules reviews before words are forgotten.", nil
		case "reformulate_dont_know":
			return `{"reformulated_question":"Should lessons work without internet during flights?","explanation":"Offline lessons are downloaded in advance."}`, nil
		case "reformulate_no_preference":
			return `{"reformulated_question":"Should speech recognition be in the first release?","explanation":"It checks pronunciation.",
"options":[{"title":"Yes","description":"Include it"},{"title":"No","description":"Add it later"}]}`, nil
		case "refine":
			return "A mobile language-learning app with offline lessons.", nil
		case "feedback_mostly_correct":
			return "A mobile language-learning app with offline lessons and a web companion.", nil
		case "final_report":
			return "FINAL: language-learning app brief", nil
		case "complexity":
			return `{"technical_complexity":4,"required_resources":3,"implementation_time":4,"required_knowledge":2,
"overall_complexity":"medium","complexity_description":"Content heavy","main_challenges":["content"],"recommended_approach":"Start with one language"}`, nil
		case "improvements":
			return "1. Add a placement test\n2. Offer downloadable packs", nil
		}
		return "", testutil.ErrScriptExhausted
	}
}

type fixture struct {
	o      *Orchestrator
	gen    *testutil.Generator
	store  session.Store
	events *memEvents
}

func newFixture(t *testing.T, opts ...func(*Services)) fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Language = "en"

	st, err := session.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	gen := testutil.NewGenerator()
	gen.Handler = briefingHandler()
	ev := &memEvents{}

	svc := Services{Store: st, Events: ev}
	for _, opt := range opts {
		opt(&svc)
	}
	o, err := New(cfg, gen, svc)
	require.NoError(t, err)
	return fixture{o: o, gen: gen, store: st, events: ev}
}

func answerAll(qs []model.Question, value string) []model.Answer {
	out := make([]model.Answer, 0, len(qs))
	for _, q := range qs {
		out = append(out, model.Answer{Question: q.Text, Answer: value})
	}
	return out
}

func TestBriefing_LanguageApp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.o.CreateSession(ctx)
	require.NoError(t, err)
	id := s.SessionID
	assert.Equal(t, model.StepInputIdea, s.CurrentStep)
	assert.Equal(t, "en", s.Language)

	_, err = f.o.SubmitIdea(ctx, id, "  app ")
	assert.ErrorIs(t, err, ErrIdeaTooShort)

	s, err = f.o.SubmitIdea(ctx, id, idea)
	require.NoError(t, err)
	assert.Equal(t, model.StepCompetencyAnalysis, s.CurrentStep)
	assert.Equal(t, model.StageStart, s.CompetencyStage)
	assert.Equal(t, idea, s.OriginalUserIdea)

	s, err = f.o.RunCompetencyAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepAnswerCompetencyQuestions, s.CurrentStep)
	assert.Equal(t, model.StageAssessment, s.CompetencyStage)
	assert.Equal(t, "Education", s.DomainAnalysis.PrimaryDomain)
	assert.Len(t, s.ContextQuestions, 2)
	assert.Equal(t, []string{"pedagogy"}, s.RequiredCompetencies.Competencies)
	require.Len(t, s.CompetencyQuestions, 2)
	assert.Equal(t, model.Texts(s.CompetencyQuestions), s.AllAskedQuestions)

	cq := s.CompetencyQuestions
	s, err = f.o.SubmitCompetencyAnswers(ctx, id, []model.Answer{
		{Question: cq[0].Text, Answer: "Yes", Comment: "Two years of evening classes"},
		{Question: cq[1].Text, Answer: "Let AI decide"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StepGenerateQuestions, s.CurrentStep)
	assert.Equal(t, "Spaced repetition schedules reviews before words are forgotten.", s.CompetencyAnswers[cq[1].Text])
	assert.Equal(t, "Two years of evening classes", s.CompetencyComments[cq[0].Text])

	s, err = f.o.GenerateQuestions(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepAnswerMainQuestions, s.CurrentStep)
	assert.Equal(t, model.StageMain, s.CompetencyStage)
	assert.Equal(t, model.LevelIntermediate, s.CompetencyProfile.OverallLevel)
	assert.Equal(t, rounds[0], model.Texts(s.ClarifyingQuestions))
	assert.Len(t, s.AllAskedQuestions, 9)

	mq := s.ClarifyingQuestions
	main := answerAll(mq, "Yes")
	main[0].Answer = "Don't know"
	main[1].Answer = "No preference"
	main[1].Comment = "Depends on cost"
	main[2].Comment = "Badges only"
	s, err = f.o.SubmitMainAnswers(ctx, id, main)
	require.NoError(t, err)
	assert.Equal(t, model.StepReformulateQuestions, s.CurrentStep)

	s, err = f.o.ReformulateUnclear(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepReformulateQuestions, s.CurrentStep)
	require.Len(t, s.Reformulations, 2)
	assert.Equal(t, mq[0].Text, s.Reformulations[0].OriginalQuestion)
	assert.Empty(t, s.Reformulations[0].Options)
	assert.Len(t, s.Reformulations[1].Options, 2)

	s, err = f.o.ProcessAnswers(ctx, id, []model.Answer{
		{Question: mq[0].Text, Answer: "Yes", Comment: "Offline matters on trips"},
		{Question: mq[1].Text, Answer: "No"},
		{Question: "Never asked?", Answer: "Yes"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StepGenerateRefined, s.CurrentStep)
	assert.Equal(t, "A mobile language-learning app with offline lessons.", s.RefinedIdea)
	assert.Len(t, s.Answers, 9)
	assert.Equal(t, "Yes", s.Answers[mq[0].Text])
	assert.Equal(t, "Offline matters on trips", s.Comments[mq[0].Text])
	assert.NotContains(t, s.Answers, "Never asked?")
	refineReq, ok := f.gen.Last("Offline matters on trips")
	require.True(t, ok)
	assert.Equal(t, "refine", refineReq.Purpose)

	firstAsked := append([]string(nil), s.AllAskedQuestions...)
	s, err = f.o.IterateAgain(ctx, id, "More about monetisation")
	require.NoError(t, err)
	assert.Equal(t, model.StepGenerateQuestions, s.CurrentStep)
	assert.Equal(t, model.StageProfileBuilt, s.CompetencyStage)
	assert.Equal(t, 1, s.IterationCount)
	require.Len(t, s.AllIterations, 1)
	assert.Equal(t, model.FeedbackIterateAgain, s.AllIterations[0].FeedbackType)
	assert.Len(t, s.AllIterations[0].Answers, 7)
	assert.Empty(t, s.MainAnswers)
	assert.Empty(t, s.ClarifyingQuestions)
	assert.Equal(t, firstAsked, s.AllAskedQuestions)

	s, err = f.o.GenerateQuestions(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, f.gen.Count("profile"), "profile is reused across iterations")
	assert.Equal(t, rounds[1], model.Texts(s.ClarifyingQuestions))
	assert.Len(t, s.AllAskedQuestions, 16)
	assert.Subset(t, s.AllAskedQuestions, firstAsked)

	var adaptive []llm.Request
	for _, r := range f.gen.Requests() {
		if r.Purpose == "adaptive_questions" {
			adaptive = append(adaptive, r)
		}
	}
	require.Len(t, adaptive, 2)
	for _, q := range rounds[0] {
		assert.Contains(t, adaptive[1].Prompt, q)
	}

	s, err = f.o.SubmitMainAnswers(ctx, id, answerAll(s.ClarifyingQuestions, "Yes"))
	require.NoError(t, err)
	s, err = f.o.ProcessAnswers(ctx, id, nil)
	require.NoError(t, err)
	assert.Len(t, s.Answers, 16)

	s, err = f.o.IterateAgain(ctx, id, "Now the pricing")
	require.NoError(t, err)
	assert.Equal(t, 2, s.IterationCount)
	require.Len(t, s.AllIterations, 2)
	assert.Equal(t, rounds[1], model.Texts(s.AllIterations[1].Questions))

	s, err = f.o.GenerateQuestions(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rounds[2], model.Texts(s.ClarifyingQuestions))
	assert.Len(t, s.AllAskedQuestions, 23)
	assert.Equal(t, 1, f.gen.Count("profile"))

	var iterated []string
	for _, it := range s.AllIterations {
		iterated = append(iterated, model.Texts(it.Questions)...)
	}
	assert.Len(t, iterated, 14)
	assert.Subset(t, s.AllAskedQuestions, iterated)
	assert.Greater(t, len(s.AllAskedQuestions), len(iterated))
	assert.Subset(t, s.AllAskedQuestions, rounds[2])
	assert.Subset(t, s.AllAskedQuestions, model.Texts(s.CompetencyQuestions))

	s, err = f.o.SubmitMainAnswers(ctx, id, answerAll(s.ClarifyingQuestions, "No"))
	require.NoError(t, err)
	s, err = f.o.ProcessAnswers(ctx, id, nil)
	require.NoError(t, err)
	assert.Len(t, s.Answers, 23)
	assert.Equal(t, "Yes", s.Answers[rounds[1][0]])
	assert.Equal(t, "No", s.Answers[rounds[2][0]])

	s, err = f.o.SubmitFeedback(ctx, id, model.FeedbackMostlyCorrect, "Add a web companion")
	require.NoError(t, err)
	assert.Equal(t, model.StepGenerateRefined, s.CurrentStep)
	assert.Equal(t, "A mobile language-learning app with offline lessons and a web companion.", s.RefinedIdea)

	s, err = f.o.Approve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepCompleted, s.CurrentStep)
	assert.Equal(t, model.StatusCompleted, s.Status)
	assert.Equal(t, "FINAL: language-learning app brief", s.FinalResult)

	var feedback []string
	for _, ev := range s.ValidationHistory {
		if ev.Kind == model.EventFeedback {
			feedback = append(feedback, ev.FeedbackType)
		}
	}
	assert.Equal(t, []string{model.FeedbackIterateAgain, model.FeedbackIterateAgain, model.FeedbackMostlyCorrect, model.FeedbackCorrect}, feedback)

	stored, err := f.store.Load(id)
	require.NoError(t, err)
	assert.Equal(t, model.StepCompleted, stored.CurrentStep)

	_, err = f.o.IterateAgain(ctx, id, "")
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, 1, f.events.count(log.EventSessionCompleted))
	assert.Equal(t, 2, f.events.count(log.EventIterationStarted))

	stats, err := f.o.Stats(id)
	require.NoError(t, err)
	assert.Equal(t, 23, stats.AskedCount)
	assert.True(t, stats.Stages[model.StepGenerateQuestions].Completed)
}

func TestOperations_RequireStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.o.CreateSession(ctx)
	require.NoError(t, err)

	_, err = f.o.GenerateQuestions(ctx, s.SessionID)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = f.o.SubmitMainAnswers(ctx, s.SessionID, nil)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = f.o.Approve(ctx, s.SessionID)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = f.o.Insights(ctx, s.SessionID)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = f.o.SubmitFeedback(ctx, s.SessionID, "great", "")
	assert.ErrorIs(t, err, ErrUnknownFeedback)
	_, err = f.o.RunCompetencyAnalysis(ctx, session.NewID())
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSubmitAnswers_NeedsAnAnswer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.o.CreateSession(ctx)
	require.NoError(t, err)
	_, err = f.o.SubmitIdea(ctx, s.SessionID, idea)
	require.NoError(t, err)
	s, err = f.o.RunCompetencyAnalysis(ctx, s.SessionID)
	require.NoError(t, err)

	_, err = f.o.SubmitCompetencyAnswers(ctx, s.SessionID, []model.Answer{{Question: "Unknown?", Answer: "Yes"}})
	assert.ErrorIs(t, err, ErrNoAnswers)
	_, err = f.o.SubmitCompetencyAnswers(ctx, s.SessionID, answerAll(s.CompetencyQuestions, "  "))
	assert.ErrorIs(t, err, ErrNoAnswers)
}

func TestRunCompetencyAnalysis_CheckpointsProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.o.CreateSession(ctx)
	require.NoError(t, err)
	id := s.SessionID
	_, err = f.o.SubmitIdea(ctx, id, idea)
	require.NoError(t, err)

	f.gen.Fail("context_questions", llm.ErrConnectivity)
	_, err = f.o.RunCompetencyAnalysis(ctx, id)
	require.ErrorIs(t, err, llm.ErrConnectivity)

	stored, err := f.store.Load(id)
	require.NoError(t, err)
	assert.Equal(t, model.StepCompetencyAnalysis, stored.CurrentStep)
	require.NotNil(t, stored.DomainAnalysis)
	assert.Equal(t, "Education", stored.DomainAnalysis.PrimaryDomain)
	assert.Empty(t, stored.ContextQuestions)

	s, err = f.o.RunCompetencyAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepAnswerCompetencyQuestions, s.CurrentStep)
	assert.Equal(t, 1, f.gen.Count("domain_analysis"))
	assert.Equal(t, 2, f.gen.Count("context_questions"))
}

func TestFallbacksAreRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.o.CreateSession(ctx)
	require.NoError(t, err)
	_, err = f.o.SubmitIdea(ctx, s.SessionID, idea)
	require.NoError(t, err)

	f.gen.On("domain_analysis", "I think this is about education.")
	f.gen.On("required_competencies", "no structure here")
	s, err = f.o.RunCompetencyAnalysis(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "General", s.DomainAnalysis.PrimaryDomain)
	assert.Equal(t, "General", s.RequiredCompetencies.Domain)

	var components []string
	for _, ev := range s.ValidationHistory {
		if ev.Kind == model.EventFallback {
			components = append(components, ev.Component)
		}
	}
	assert.Equal(t, []string{"domain_analysis"}, components)
	assert.Equal(t, 1, f.events.count(log.EventFallbackUsed))
}

func TestStageLoopIsRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.o.CreateSession(ctx)
	require.NoError(t, err)
	id := s.SessionID
	_, err = f.o.SubmitIdea(ctx, id, idea)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		f.gen.Fail("domain_analysis", llm.ErrConnectivity)
	}
	for i := 0; i < 4; i++ {
		_, err = f.o.RunCompetencyAnalysis(ctx, id)
		require.ErrorIs(t, err, llm.ErrConnectivity, "attempt %d", i+1)
	}
	_, err = f.o.RunCompetencyAnalysis(ctx, id)
	require.ErrorIs(t, err, ErrStageLoop)
	assert.Equal(t, 4, f.gen.Count("domain_analysis"))

	f.o.ResetStage(id, model.StepCompetencyAnalysis)
	s, err = f.o.RunCompetencyAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepAnswerCompetencyQuestions, s.CurrentStep)
}

func TestRetryAfterConnectivityFailure_LongAfter(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	f := newFixture(t, func(svc *Services) { svc.Clock = clock.now })
	ctx := context.Background()
	s, err := f.o.CreateSession(ctx)
	require.NoError(t, err)
	id := s.SessionID
	_, err = f.o.SubmitIdea(ctx, id, idea)
	require.NoError(t, err)

	f.gen.Fail("domain_analysis", llm.ErrConnectivity)
	_, err = f.o.RunCompetencyAnalysis(ctx, id)
	require.ErrorIs(t, err, llm.ErrConnectivity)

	clock.advance(f.o.Monitor().MaxStageTime + time.Minute)
	s, err = f.o.RunCompetencyAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepAnswerCompetencyQuestions, s.CurrentStep)

	cq := answerAll(s.CompetencyQuestions, "No")
	_, err = f.o.SubmitCompetencyAnswers(ctx, id, cq)
	require.NoError(t, err)
	f.gen.Fail("profile", llm.ErrConnectivity)
	_, err = f.o.GenerateQuestions(ctx, id)
	require.ErrorIs(t, err, llm.ErrConnectivity)

	clock.advance(3 * f.o.Monitor().MaxStageTime)
	s, err = f.o.GenerateQuestions(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepAnswerMainQuestions, s.CurrentStep)
}

func TestSessionBusy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.o.CreateSession(ctx)
	require.NoError(t, err)

	release, err := f.o.guard.acquire(s.SessionID)
	require.NoError(t, err)
	_, err = f.o.SubmitIdea(ctx, s.SessionID, idea)
	assert.ErrorIs(t, err, ErrSessionBusy)
	assert.ErrorIs(t, f.o.DeleteSession(s.SessionID), ErrSessionBusy)
	release()

	_, err = f.o.SubmitIdea(ctx, s.SessionID, idea)
	assert.NoError(t, err)
}

func TestSessionBusy_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.o.CreateSession(ctx)
	require.NoError(t, err)
	_, err = f.o.SubmitIdea(ctx, s.SessionID, idea)
	require.NoError(t, err)

	entered := make(chan struct{})
	proceed := make(chan struct{})
	f.gen.Handler = func(req llm.Request) (string, error) {
		if req.Purpose == "domain_analysis" {
			close(entered)
			<-proceed
		}
		return briefingHandler()(req)
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.o.RunCompetencyAnalysis(ctx, s.SessionID)
		done <- err
	}()
	<-entered
	_, err = f.o.RunCompetencyAnalysis(ctx, s.SessionID)
	assert.ErrorIs(t, err, ErrSessionBusy)
	close(proceed)
	require.NoError(t, <-done)
}

func TestSubmitFeedback_ResumesFromValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := driveToRefined(t, f)

	f.gen.Fail("final_report", llm.ErrConnectivity)
	_, err := f.o.Approve(ctx, s.SessionID)
	require.ErrorIs(t, err, llm.ErrConnectivity)

	stored, err := f.store.Load(s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StepValidateIdea, stored.CurrentStep)

	s, err = f.o.Approve(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StepCompleted, s.CurrentStep)
}

func TestInsights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := driveToRefined(t, f)

	in, err := f.o.Insights(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 4, in.Complexity.Technical)
	assert.Equal(t, []string{"Add a placement test", "Offer downloadable packs"}, in.Improvements)

	req, ok := f.gen.Last("A mobile language-learning app with offline lessons.")
	require.True(t, ok)
	assert.Equal(t, "improvements", req.Purpose)

	stored, err := f.store.Load(s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StepGenerateRefined, stored.CurrentStep)
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.o.CreateSession(ctx)
	require.NoError(t, err)

	list, err := f.o.ListSessions()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.o.DeleteSession(s.SessionID))
	_, err = f.o.LoadSession(s.SessionID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Equal(t, 1, f.events.count(log.EventSessionDeleted))
}

func driveToRefined(t *testing.T, f fixture) *model.SessionData {
	t.Helper()
	ctx := context.Background()
	s, err := f.o.CreateSession(ctx)
	require.NoError(t, err)
	id := s.SessionID
	_, err = f.o.SubmitIdea(ctx, id, idea)
	require.NoError(t, err)
	s, err = f.o.RunCompetencyAnalysis(ctx, id)
	require.NoError(t, err)
	_, err = f.o.SubmitCompetencyAnswers(ctx, id, answerAll(s.CompetencyQuestions, "No"))
	require.NoError(t, err)
	s, err = f.o.GenerateQuestions(ctx, id)
	require.NoError(t, err)
	_, err = f.o.SubmitMainAnswers(ctx, id, answerAll(s.ClarifyingQuestions, "Yes"))
	require.NoError(t, err)
	s, err = f.o.ProcessAnswers(ctx, id, nil)
	require.NoError(t, err)
	require.Equal(t, model.StepGenerateRefined, s.CurrentStep)
	return s
}
