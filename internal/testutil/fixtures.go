// Package testutil provides test helper utilities for briefing tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/berth-dev/briefing/internal/model"
)

// TempProject creates a temporary directory with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// FixedTime is the clock value used by session fixtures.
var FixedTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// CompletedSession returns a fully populated session after one iteration.
// Useful for persistence round-trips.
func CompletedSession(id string) *model.SessionData {
	s := model.NewSessionData(id, FixedTime)
	s.Language = "ru"
	s.Status = model.StatusCompleted
	s.CurrentStep = model.StepCompleted
	s.IterationCount = 1
	s.CompetencyStage = model.StageMain
	s.UserIdea = "Хочу создать приложение для изучения языков"
	s.OriginalUserIdea = s.UserIdea
	s.RefinedIdea = "Уточненная идея: мобильное приложение"
	s.FinalResult = "Итоговый отчет"
	s.DomainAnalysis = &model.DomainAnalysis{
		PrimaryDomain:              "Образование",
		SecondaryDomains:           []string{"Технологии/IT"},
		ComplexityLevel:            "средняя",
		RequiresTechnicalKnowledge: true,
		DomainDescription:          "Методики обучения языкам",
	}
	s.RequiredCompetencies = &model.RequiredCompetencies{
		Domain:       "Образование",
		Competencies: []string{"Педагогика"},
		Knowledge:    []string{"Лингвистика"},
		Skills:       []string{"Разработка"},
		Experience:   []string{"Преподавание"},
	}
	s.CompetencyProfile = &model.CompetencyProfile{
		Domain:       "Образование",
		OverallLevel: model.LevelIntermediate,
		Strengths:    []string{"Опыт разработки"},
		Gaps:         []string{"Методика"},
		QuestionStrategy: model.QuestionStrategy{
			ComplexityLevel:   "средние",
			TerminologyUsage:  "базовая",
			ExplanationNeeded: true,
		},
		ProfileSummary: "Средний уровень",
	}
	s.ContextQuestions = []string{"Для какой аудитории приложение?"}
	s.CompetencyQuestions = []model.Question{
		{Text: "Есть ли у вас педагогическое образование?", Category: "education", Weight: "high"},
	}
	s.ClarifyingQuestions = []model.Question{
		{Text: "Это мобильное приложение?", Examples: []string{"iOS"}, AdaptedFor: "Уровень средний"},
	}
	s.CompetencyAnswers = map[string]string{"Есть ли у вас педагогическое образование?": "Нет"}
	s.MainAnswers = map[string]string{"Это мобильное приложение?": "Да"}
	s.MainComments = map[string]string{"Это мобильное приложение?": "Только Android"}
	s.Reformulations = []model.Reformulation{{
		OriginalQuestion: "Нужна оплата?",
		Question:         "Уточните: Нужна оплата?",
		Options:          []model.Option{{Title: "Да", Description: "Включить"}},
		OriginalAnswer:   "Без разницы",
	}}
	s.AllIterations = []model.SessionIteration{{
		Iteration:    0,
		Timestamp:    FixedTime,
		RefinedIdea:  "Уточненная идея: приложение",
		FeedbackType: model.FeedbackIterateAgain,
		Questions:    []model.Question{{Text: "Это мобильное приложение?"}},
		Answers:      []model.Answer{{Question: "Это мобильное приложение?", Answer: "Да", Timestamp: FixedTime}},
	}}
	s.RecordAsked(s.CompetencyQuestions...)
	s.RecordAsked(s.ClarifyingQuestions...)
	s.AddEvent(model.ValidationEvent{Kind: model.EventFeedback, FeedbackType: model.FeedbackCorrect}, FixedTime)
	return s
}
