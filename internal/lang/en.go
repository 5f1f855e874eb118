package lang

var english = Preset{
	Code: "en",
	Name: "English",

	OpenKeywords: []string{"how", "what", "where", "when", "why", "which", "who", "whom", "whose"},
	ChoicePatterns: []string{
		`(?:^|[^\p{L}])(?:or|either)(?:$|[^\p{L}])`,
	},
	ComplexPatterns: []string{
		`(?:amount|number|price|cost)\s+of(?:$|[^\p{L}])`,
		`how\s+(?:long|much|many)`,
		`in\s+(?:which|what)\s+(?:format|form|size)`,
		`for\s+what\s+(?:purposes?|goals?|tasks?)`,
		`on\s+(?:which|what)\s+(?:platform|basis)`,
	},
	ClosedPatterns: []string{
		`^(?:is|are|was|were|will|would|does|do|did|has|have|had|can|could|should|shall|may|might|must)(?:$|[^\p{L}])`,
		`^(?:need|needs|plan|planning|want|exists?|agree|ready)(?:$|[^\p{L}])`,
		`,\s*(?:right|correct)\?\s*$`,
	},
	Openers:    []string{"Is", "Will", "Does", "Do you plan", "Do you want", "Is there", "Should", "Would"},
	Connectors: []string{"and", "also", "plus"},

	Answers: AnswerSet{
		Yes:          "Yes",
		No:           "No",
		DontKnow:     "Don't know",
		NoPreference: "No preference",
		DelegateToAI: "Let AI decide",
	},

	LevelLabels: map[string]string{
		"novice":       "novice",
		"basic":        "basic",
		"intermediate": "intermediate",
		"advanced":     "advanced",
		"expert":       "expert",
	},

	Domains: []string{
		"Technology/IT",
		"Medicine/Healthcare",
		"Education",
		"Business/Entrepreneurship",
		"Science/Research",
		"Art/Creativity",
		"Sports/Fitness",
		"Finance/Investment",
		"Manufacturing/Engineering",
		"Social sciences",
		"Ecology/Nature",
		"Cooking",
		"General",
	},
	GeneralDomain: "General",

	FallbackQuestion: "Is this important for your project?",
	FallbackCompetency: []FallbackCompetencyQuestion{
		{Template: "Do you have formal education in %s?", Category: "education", Weight: "high", Explanation: "Establish the baseline education level"},
		{Template: "Do you have practical experience in %s?", Category: "experience", Weight: "high", Explanation: "Find out practical skills"},
		{Template: "Are you familiar with the professional terminology of %s?", Category: "knowledge", Weight: "medium", Explanation: "Gauge depth of knowledge"},
	},
	DefaultProfile: DefaultProfileText{
		Education:   "basic",
		Practice:    "minimal",
		Theory:      "basic",
		Technical:   "basic",
		Strengths:   []string{"Basic knowledge"},
		Gaps:        []string{"Needs further study"},
		Complexity:  "medium",
		Terminology: "basic",
		Summary:     "User with basic knowledge; explanations and examples required",
	},
	DefaultRequired: DefaultRequiredText{
		Competencies: []string{"Basic knowledge"},
		Knowledge:    []string{"General understanding"},
		Skills:       []string{"Basic skills"},
		Experience:   []string{"Minimal experience"},
	},

	ClarifyPrefix:      "Please clarify: ",
	ClarifyExplanation: "Please answer this question more specifically",
	OptionYesText:      "Include this feature",
	OptionNoText:       "Leave this feature out",

	DelegatedFallback: "Yes - AI recommends a positive answer",

	Leads: RefinementLeads{
		Refined:  "Refined idea:",
		Improved: "Improved idea:",
		Reworked: "Reworked idea:",
	},

	DefaultComplexity: DefaultComplexityText{
		Overall:     "medium",
		Description: "Further analysis required",
		Challenges:  []string{"Define requirements", "Choose technologies"},
		Approach:    "Incremental delivery",
	},
	Notes: AdaptationNotes{
		Level:               "Level %s",
		Backfill:            "Backfill for level %s",
		Corrected:           "Corrected for level %s",
		Fallback:            "Fallback for level %s",
		FallbackExplanation: "Basic question",
		FallbackExample:     "Sample answer",
	},
}
