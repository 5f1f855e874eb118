package lang

var russian = Preset{
	Code: "ru",
	Name: "Russian",

	OpenKeywords: []string{
		"как", "что", "где", "когда", "почему", "зачем", "кто", "чем", "сколько",
		"какой", "какая", "какое", "какие", "какую", "каком", "каких", "каким", "какими",
		"куда", "откуда", "чего", "кого",
	},
	ChoicePatterns: []string{
		`(?:^|[^\p{L}])(?:или|либо)(?:$|[^\p{L}])`,
	},
	ComplexPatterns: []string{
		`какую?\s+(?:сумму|количество|цену|стоимость)`,
		`сколько\s+(?:времени|денег|людей)`,
		`в\s+каком\s+(?:формате|виде|размере)`,
		`для\s+каких?\s+(?:целей|задач)`,
		`на\s+какой\s+(?:платформе|основе)`,
	},
	ClosedPatterns: []string{
		`^(?:это|является|будет|требует|нужно|нужна|нужен|планируете|хотите|можете|есть|имеется|имеете|существует)`,
		`(?:^|[^\p{L}])ли(?:\s|$)`,
		`^(?:согласны|готовы|хотели\s+бы|собираетесь|знакомы|умеете)`,
		`^(?:предполагается|ожидается|планируется)`,
		`(?:^|[^\p{L}])нужн[аоы](?:$|[^\p{L}])`,
	},
	Openers:    []string{"Это", "Планируете", "Требуется", "Нужно", "Хотите", "Будет", "Есть", "Согласны"},
	Connectors: []string{"и", "а", "также"},

	Answers: AnswerSet{
		Yes:          "Да",
		No:           "Нет",
		DontKnow:     "Не знаю",
		NoPreference: "Без разницы",
		DelegateToAI: "Доверяю решение ИИ",
	},

	LevelLabels: map[string]string{
		"novice":       "новичок",
		"basic":        "базовый",
		"intermediate": "средний",
		"advanced":     "продвинутый",
		"expert":       "эксперт",
	},

	Domains: []string{
		"Технологии/IT",
		"Медицина/Здравоохранение",
		"Образование",
		"Бизнес/Предпринимательство",
		"Наука/Исследования",
		"Искусство/Творчество",
		"Спорт/Фитнес",
		"Финансы/Инвестиции",
		"Производство/Инженерия",
		"Социальные науки",
		"Экология/Природа",
		"Кулинария",
		"Общая",
	},
	GeneralDomain: "Общая",

	FallbackQuestion: "Это важно для вашего проекта?",
	FallbackCompetency: []FallbackCompetencyQuestion{
		{Template: "Есть ли у вас образование в области %s?", Category: "education", Weight: "high", Explanation: "Определить базовый уровень образования"},
		{Template: "Имеете ли вы практический опыт в области %s?", Category: "experience", Weight: "high", Explanation: "Выяснить практические навыки"},
		{Template: "Знакомы ли вы с профессиональной терминологией в области %s?", Category: "knowledge", Weight: "medium", Explanation: "Оценить глубину знаний"},
	},
	DefaultProfile: DefaultProfileText{
		Education:   "базовое",
		Practice:    "минимальный",
		Theory:      "базовое",
		Technical:   "базовые",
		Strengths:   []string{"Базовые знания"},
		Gaps:        []string{"Требуется дополнительное изучение"},
		Complexity:  "средние",
		Terminology: "базовая",
		Summary:     "Пользователь с базовыми знаниями, требуются пояснения и примеры",
	},
	DefaultRequired: DefaultRequiredText{
		Competencies: []string{"Базовые знания"},
		Knowledge:    []string{"Общие представления"},
		Skills:       []string{"Базовые навыки"},
		Experience:   []string{"Минимальный опыт"},
	},

	ClarifyPrefix:      "Уточните: ",
	ClarifyExplanation: "Пожалуйста, ответьте на этот вопрос более конкретно",
	OptionYesText:      "Включить эту функцию",
	OptionNoText:       "Не включать эту функцию",

	DelegatedFallback: "Да - ИИ рекомендует положительный ответ",

	Leads: RefinementLeads{
		Refined:  "Уточненная идея:",
		Improved: "Доработанная идея:",
		Reworked: "Переработанная идея:",
	},

	DefaultComplexity: DefaultComplexityText{
		Overall:     "средняя",
		Description: "Требуется дополнительный анализ",
		Challenges:  []string{"Определить требования", "Выбрать технологии"},
		Approach:    "Поэтапная реализация",
	},
	Notes: AdaptationNotes{
		Level:               "Уровень %s",
		Backfill:            "Дополнительный для уровня %s",
		Corrected:           "Исправлен для уровня %s",
		Fallback:            "Запасной для уровня %s",
		FallbackExplanation: "Базовый вопрос",
		FallbackExample:     "Пример ответа",
	},
}
