// Package prompts renders the embedded generation prompts.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/berth-dev/briefing/internal/lang"
	"github.com/berth-dev/briefing/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Name identifies a prompt template. It doubles as the llm.Request purpose.
type Name string

const (
	DomainAnalysis          Name = "domain_analysis"
	ContextQuestions        Name = "context_questions"
	RequiredCompetencies    Name = "required_competencies"
	AssessmentQuestions     Name = "assessment_questions"
	Profile                 Name = "profile"
	BaseQuestions           Name = "base_questions"
	AdaptiveQuestions       Name = "adaptive_questions"
	Backfill                Name = "backfill"
	Regenerate              Name = "regenerate"
	ReformulateDontKnow     Name = "reformulate_dont_know"
	ReformulateNoPreference Name = "reformulate_no_preference"
	Refine                  Name = "refine"
	FeedbackMostlyCorrect   Name = "feedback_mostly_correct"
	FeedbackMostlyIncorrect Name = "feedback_mostly_incorrect"
	FinalReport             Name = "final_report"
	Complexity              Name = "complexity"
	Improvements            Name = "improvements"
	DelegatedAnswer         Name = "delegated_answer"
)

// Names lists every prompt template.
var Names = []Name{
	DomainAnalysis, ContextQuestions, RequiredCompetencies, AssessmentQuestions,
	Profile, BaseQuestions, AdaptiveQuestions, Backfill, Regenerate,
	ReformulateDontKnow, ReformulateNoPreference, Refine, FeedbackMostlyCorrect,
	FeedbackMostlyIncorrect, FinalReport, Complexity, Improvements, DelegatedAnswer,
}

// Data holds the template data for every prompt. Each template reads the
// fields it needs.
type Data struct {
	Lang lang.Preset

	Idea        string
	RefinedIdea string
	Question    string
	Comment     string
	Feedback    string
	Domain      string
	Level       string
	Beginner    bool
	Count       int
	Iterations  int

	Existing         []string
	ContextQuestions []string
	Answers          []model.Answer
	Comments         []model.Answer

	Required *model.RequiredCompetencies
	Profile  *model.CompetencyProfile
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
	"quoteJoin": func(items []string) string {
		quoted := make([]string, len(items))
		for i, s := range items {
			quoted[i] = `"` + s + `"`
		}
		return strings.Join(quoted, ", ")
	},
	"levels": func(p lang.Preset) string {
		labels := make([]string, len(model.Levels))
		for i, l := range model.Levels {
			labels[i] = p.LevelLabel(l)
		}
		return strings.Join(labels, "/")
	},
}

// Templates are embedded at compile time; a parse failure is a bug.
var templates = template.Must(template.New("prompts").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl"))

// Render executes the named prompt template.
func Render(name Name, data Data) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(name)+".tmpl", data); err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// System prompt roles.
const (
	RoleMain       = "main"
	RoleQuestions  = "questions"
	RoleCompetency = "competency"
	RoleRefinement = "refinement"
	RoleFinal      = "final"
)

var systemPrompts = map[string]string{
	RoleMain:       "You are an AI assistant running briefings. Be precise and concrete.",
	RoleQuestions:  "You specialize in writing clarifying questions in closed form (yes/no).",
	RoleCompetency: "You assess the user's competencies and adapt questions to their level.",
	RoleRefinement: "You help refine and detail ideas from the information gathered.",
	RoleFinal:      "You write final reports and recommendations from briefing results.",
}

// System returns the system prompt for role in the preset's language.
func System(role string, p lang.Preset) string {
	base, ok := systemPrompts[role]
	if !ok {
		base = systemPrompts[RoleMain]
	}
	return fmt.Sprintf("%s Answer only in %s.", base, p.Name)
}
