// Package model defines the briefing session aggregate and the values the
// AI components exchange with it. JSON tags define the persisted document.
package model

import (
	"fmt"
	"sort"
	"time"
)

// Step is the position of a session in the interview state machine.
type Step string

const (
	StepInputIdea                 Step = "input_idea"
	StepCompetencyAnalysis        Step = "competency_analysis"
	StepAnswerCompetencyQuestions Step = "answer_competency_questions"
	StepGenerateQuestions         Step = "generate_questions"
	StepAnswerMainQuestions       Step = "answer_main_questions"
	StepReformulateQuestions      Step = "reformulate_questions"
	StepGenerateRefined           Step = "generate_refined"
	StepValidateIdea              Step = "validate_idea"
	StepCompleted                 Step = "completed"
)

var steps = []Step{
	StepInputIdea,
	StepCompetencyAnalysis,
	StepAnswerCompetencyQuestions,
	StepGenerateQuestions,
	StepAnswerMainQuestions,
	StepReformulateQuestions,
	StepGenerateRefined,
	StepValidateIdea,
	StepCompleted,
}

// ParseStep validates s as a Step.
func ParseStep(s string) (Step, error) {
	for _, st := range steps {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown step %q", s)
}

// UnmarshalText rejects unknown steps so a corrupt document never loads.
func (s *Step) UnmarshalText(b []byte) error {
	st, err := ParseStep(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Status of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Competency sub-stage markers. They are progress information only; the
// state machine position is CurrentStep.
const (
	StageStart        = "start"
	StageAssessment   = "assessment"
	StageProfileBuilt = "profile_built"
	StageMain         = "main"
)

// Feedback classifications for a refined idea.
const (
	FeedbackCorrect         = "correct"
	FeedbackMostlyCorrect   = "mostly_correct"
	FeedbackMostlyIncorrect = "mostly_incorrect"
	FeedbackIterateAgain    = "iterate_again"
)

// Question is a closed-form question issued to the user.
type Question struct {
	Text        string   `json:"text"`
	Explanation string   `json:"explanation"`
	Examples    []string `json:"examples"`
	Category    string   `json:"category"`
	Weight      string   `json:"weight"`
	AdaptedFor  string   `json:"adapted_for"`
}

// Answer records the user's answer to one question.
type Answer struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
}

// DomainAnalysis classifies an idea against the domain taxonomy.
type DomainAnalysis struct {
	PrimaryDomain                string   `json:"primary_domain"`
	SecondaryDomains             []string `json:"secondary_domains"`
	ComplexityLevel              string   `json:"complexity_level"`
	RequiresTechnicalKnowledge   bool     `json:"requires_technical_knowledge"`
	RequiresSpecializedKnowledge bool     `json:"requires_specialized_knowledge"`
	DomainDescription            string   `json:"domain_description"`
}

// RequiredCompetencies is the skill vector the user is evaluated against.
type RequiredCompetencies struct {
	Domain       string   `json:"domain"`
	Competencies []string `json:"competencies"`
	Knowledge    []string `json:"knowledge"`
	Skills       []string `json:"skills"`
	Experience   []string `json:"experience"`
}

// QuestionStrategy controls the surface form of adaptive questions.
type QuestionStrategy struct {
	ComplexityLevel   string `json:"complexity_level"`
	TerminologyUsage  string `json:"terminology_usage"`
	ExplanationNeeded bool   `json:"explanation_needed"`
	ExamplesNeeded    bool   `json:"examples_needed"`
}

// CompetencyProfile is the synthesized assessment of the user. It is always
// replaced wholesale.
type CompetencyProfile struct {
	Domain               string           `json:"domain"`
	OverallLevel         Level            `json:"overall_level"`
	EducationLevel       string           `json:"education_level"`
	PracticalExperience  string           `json:"practical_experience"`
	TheoreticalKnowledge string           `json:"theoretical_knowledge"`
	TechnicalSkills      string           `json:"technical_skills"`
	Strengths            []string         `json:"strengths"`
	Gaps                 []string         `json:"gaps"`
	QuestionStrategy     QuestionStrategy `json:"question_strategy"`
	ProfileSummary       string           `json:"profile_summary"`
}

// Option is one concrete alternative offered for an unclear question.
type Option struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Reformulation is a restatement of a question the user could not answer.
type Reformulation struct {
	OriginalQuestion string   `json:"original_question"`
	Question         string   `json:"reformulated_question"`
	Explanation      string   `json:"explanation"`
	Options          []Option `json:"options,omitempty"`
	OriginalAnswer   string   `json:"original_answer"`
}

// UnclearItem is a question answered with "don't know" or "no preference".
type UnclearItem struct {
	Question string
	Answer   string
	Comment  string
}

// SessionIteration is a frozen snapshot of one refinement cycle.
type SessionIteration struct {
	Iteration    int        `json:"iteration"`
	Timestamp    time.Time  `json:"timestamp"`
	RefinedIdea  string     `json:"refined_idea"`
	FeedbackType string     `json:"feedback_type"`
	Comments     string     `json:"comments"`
	Questions    []Question `json:"questions"`
	Answers      []Answer   `json:"answers"`
}

// ValidationEvent kinds.
const (
	EventFeedback = "feedback"
	EventFallback = "fallback"
	EventRejected = "rejected"
)

// ValidationEvent is one entry of the session's validation log.
type ValidationEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	Kind         string    `json:"kind"`
	FeedbackType string    `json:"feedback_type,omitempty"`
	Comments     string    `json:"comments,omitempty"`
	Component    string    `json:"component,omitempty"`
	Detail       string    `json:"detail,omitempty"`
}

// SessionData is the aggregate root persisted as one JSON document.
type SessionData struct {
	SessionID        string    `json:"session_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Status           Status    `json:"status"`
	CurrentStep      Step      `json:"current_step"`
	IterationCount   int       `json:"iteration_count"`
	CompetencyStage  string    `json:"competency_stage"`
	Language         string    `json:"language"`
	UserIdea         string    `json:"user_idea"`
	OriginalUserIdea string    `json:"original_user_idea"`
	RefinedIdea      string    `json:"refined_idea"`
	FinalResult      string    `json:"final_result"`

	CompetencyProfile    *CompetencyProfile    `json:"competency_profile"`
	DomainAnalysis       *DomainAnalysis       `json:"domain_analysis"`
	RequiredCompetencies *RequiredCompetencies `json:"required_competencies"`

	ContextQuestions    []string          `json:"context_questions"`
	CompetencyQuestions []Question        `json:"competency_questions"`
	ClarifyingQuestions []Question        `json:"clarifying_questions"`
	CompetencyAnswers   map[string]string `json:"competency_answers"`
	CompetencyComments  map[string]string `json:"competency_comments"`
	MainAnswers         map[string]string `json:"main_answers"`
	MainComments        map[string]string `json:"main_comments"`
	Answers             map[string]string `json:"answers"`
	Comments            map[string]string `json:"comments"`
	Reformulations      []Reformulation   `json:"reformulations"`

	AllAskedQuestions []string           `json:"all_asked_questions"`
	AllIterations     []SessionIteration `json:"all_iterations"`
	ValidationHistory []ValidationEvent  `json:"validation_history"`
}

// NewSessionData returns an empty active session positioned at input_idea.
func NewSessionData(id string, now time.Time) *SessionData {
	return &SessionData{
		SessionID:   id,
		CreatedAt:   now,
		UpdatedAt:   now,
		Status:      StatusActive,
		CurrentStep: StepInputIdea,
	}
}

// RecordAsked appends question texts to AllAskedQuestions, skipping texts
// already present.
func (s *SessionData) RecordAsked(questions ...Question) {
	seen := make(map[string]bool, len(s.AllAskedQuestions))
	for _, q := range s.AllAskedQuestions {
		seen[q] = true
	}
	for _, q := range questions {
		if q.Text == "" || seen[q.Text] {
			continue
		}
		seen[q.Text] = true
		s.AllAskedQuestions = append(s.AllAskedQuestions, q.Text)
	}
}

// AddEvent appends a validation event stamped with now.
func (s *SessionData) AddEvent(ev ValidationEvent, now time.Time) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = now
	}
	s.ValidationHistory = append(s.ValidationHistory, ev)
}

// Texts returns the text of each question.
func Texts(qs []Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Text)
	}
	return out
}

// Summary is the listing view of a session.
type Summary struct {
	SessionID      string    `json:"session_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Status         Status    `json:"status"`
	UserIdea       string    `json:"user_idea"`
	IterationCount int       `json:"iteration_count"`
	CurrentStep    Step      `json:"current_step"`
}

// SummaryIdeaLimit is the number of runes of the idea kept in a Summary.
const SummaryIdeaLimit = 100

// Summarize builds the listing view of s.
func (s *SessionData) Summarize() Summary {
	idea := s.UserIdea
	if r := []rune(idea); len(r) > SummaryIdeaLimit {
		idea = string(r[:SummaryIdeaLimit]) + "..."
	}
	return Summary{
		SessionID:      s.SessionID,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		Status:         s.Status,
		UserIdea:       idea,
		IterationCount: s.IterationCount,
		CurrentStep:    s.CurrentStep,
	}
}

// OrderedAnswers pairs answers and comments with their questions in the
// order of questions. Answers to questions not in the list follow, sorted.
func OrderedAnswers(questions []string, answers, comments map[string]string) []Answer {
	out := make([]Answer, 0, len(answers))
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		a, ok := answers[q]
		if !ok || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, Answer{Question: q, Answer: a, Comment: comments[q]})
	}
	rest := make([]string, 0)
	for q := range answers {
		if !seen[q] {
			rest = append(rest, q)
		}
	}
	sort.Strings(rest)
	for _, q := range rest {
		out = append(out, Answer{Question: q, Answer: answers[q], Comment: comments[q]})
	}
	return out
}
