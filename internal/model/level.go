package model

// Level is a step on the fixed practice-level ladder.
type Level string

const (
	LevelBeginner1 Level = "Beginner1"
	LevelBeginner2 Level = "Beginner2"
	LevelBeginner3 Level = "Beginner3"
	LevelClub      Level = "Club"
)

// AllLevels lists every level from lowest to highest.
func AllLevels() []Level {
	return []Level{LevelBeginner1, LevelBeginner2, LevelBeginner3, LevelClub}
}

// ParseLevel maps a display string back to a level. Unknown strings fall
// back to Beginner1.
func ParseLevel(s string) Level {
	switch s {
	case "Level 1":
		return LevelBeginner1
	case "Level 2":
		return LevelBeginner2
	case "Level 3":
		return LevelBeginner3
	case "Club":
		return LevelClub
	default:
		return LevelBeginner1
	}
}

// Display returns the human-readable form of the level.
func (l Level) Display() string {
	switch l {
	case LevelBeginner1:
		return "Level 1"
	case LevelBeginner2:
		return "Level 2"
	case LevelBeginner3:
		return "Level 3"
	case LevelClub:
		return "Club"
	default:
		return "Level 1"
	}
}
