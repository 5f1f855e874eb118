package model

import "strings"

// Level is the ordinal competency tag assigned to a user.
// The zero value is not a valid level; use ParseLevel.
type Level string

const (
	LevelNovice       Level = "novice"
	LevelBasic        Level = "basic"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelExpert       Level = "expert"
)

// Levels lists every level in ascending order.
var Levels = []Level{LevelNovice, LevelBasic, LevelIntermediate, LevelAdvanced, LevelExpert}

// levelAliases maps every label a generator may emit to a level.
var levelAliases = map[string]Level{
	"novice":       LevelNovice,
	"beginner":     LevelNovice,
	"новичок":      LevelNovice,
	"basic":        LevelBasic,
	"базовый":      LevelBasic,
	"intermediate": LevelIntermediate,
	"medium":       LevelIntermediate,
	"средний":      LevelIntermediate,
	"advanced":     LevelAdvanced,
	"продвинутый":  LevelAdvanced,
	"expert":       LevelExpert,
	"эксперт":      LevelExpert,
}

// ParseLevel maps s to a Level. Unrecognized input yields LevelBasic.
func ParseLevel(s string) Level {
	l, _ := LookupLevel(s)
	return l
}

// LookupLevel is ParseLevel that also reports whether s was recognized.
func LookupLevel(s string) (Level, bool) {
	if l, ok := levelAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, true
	}
	return LevelBasic, false
}

// Rank returns the 0-based position of l in Levels, or 1 for an invalid level.
func (l Level) Rank() int {
	for i, v := range Levels {
		if v == l {
			return i
		}
	}
	return 1
}

// Beginner reports whether l is novice or basic.
func (l Level) Beginner() bool {
	return l.Rank() <= LevelBasic.Rank()
}

// Valid reports whether l is one of the five defined levels.
func (l Level) Valid() bool {
	for _, v := range Levels {
		if v == l {
			return true
		}
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return []byte(LevelBasic), nil
	}
	return []byte(l), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It never fails.
func (l *Level) UnmarshalText(b []byte) error {
	*l = ParseLevel(string(b))
	return nil
}
