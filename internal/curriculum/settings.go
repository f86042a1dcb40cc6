package curriculum

import "fmt"

// Level is the audience level of a course.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// EmptyDescription replaces a blank description when the course is saved.
const EmptyDescription = "No description provided."

// Settings is the course metadata edited next to the curriculum.
type Settings struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Level         Level  `json:"level"`
	Price         string `json:"price"`
	DurationHours int    `json:"duration_hours"`
	IsPublished   bool   `json:"is_published"`
}

// DefaultSettings are the values a brand-new course starts with.
func DefaultSettings() Settings {
	return Settings{
		Title:    "New UI Mastery Course",
		Category: "Design",
		Level:    LevelBeginner,
		Price:    "0.00",
	}
}

// SettingsPatch lists the metadata fields to overwrite.
type SettingsPatch struct {
	Title         *string
	Description   *string
	Category      *string
	Level         *Level
	Price         *string
	DurationHours *int
}

// Apply returns s with the patch merged in.
func (s Settings) Apply(p SettingsPatch) (Settings, error) {
	if p.Level != nil && !p.Level.Valid() {
		return s, fmt.Errorf("unknown course level %q", *p.Level)
	}
	if p.DurationHours != nil && *p.DurationHours < 0 {
		return s, fmt.Errorf("duration must not be negative")
	}
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Level != nil {
		s.Level = *p.Level
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.DurationHours != nil {
		s.DurationHours = *p.DurationHours
	}
	return s, nil
}
