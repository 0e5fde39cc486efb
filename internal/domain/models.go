package domain

import "time"

// Verse is one ayah unit of page content as served by the text API.
type Verse struct {
	Number        int    `json:"number"`
	Text          string `json:"text"`
	NumberInSurah int    `json:"numberInSurah"`
	SurahNumber   int    `json:"surahNumber"`
	SurahName     string `json:"surahName"`
}

// ArchetypeConfig is one question archetype entry as stored in configuration.
// Entries whose ID has no registered generator are dropped at catalog build time.
type ArchetypeConfig struct {
	ID           string `json:"id"`
	MinLevel     int    `json:"level_required"`
	OptionsCount int    `json:"options_count"`
	Active       bool   `json:"is_active"`
}

// Recipe maps archetype IDs to required repetition counts. Supplied by a live
// event or quest; recipe-sourced questions bypass the player level gate.
type Recipe map[string]int

// Option is one selectable answer.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// RenderedQuestion is a fully generated question ready for presentation.
// CorrectOptionID and CorrectText never leave the server.
type RenderedQuestion struct {
	ArchetypeID     string   `json:"archetypeId"`
	Prompt          string   `json:"prompt"`
	AudioURL        string   `json:"audioUrl,omitempty"`
	Options         []Option `json:"options"`
	CorrectOptionID string   `json:"-"`
	CorrectText     string   `json:"-"`
}

// ErrorEntry captures one wrong answer for post-session review.
type ErrorEntry struct {
	Question      RenderedQuestion `json:"question"`
	CorrectAnswer string           `json:"correctAnswer"`
}

// GameRules are the per-answer reward parameters.
type GameRules struct {
	XPPerCorrect   int `json:"xp_per_correct_answer"`
	XPBonusPerfect int `json:"xp_bonus_all_correct"`
}

// LevelInfo describes the level a given xp total corresponds to.
type LevelInfo struct {
	Level int    `json:"level"`
	Title string `json:"title"`
}

// LevelUp is returned when an xp change crosses a level threshold.
type LevelUp struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Reward int    `json:"reward"`
}

// ResultRecord is the immutable archive of one finished session.
type ResultRecord struct {
	UserID          string       `json:"user_id"`
	PageNumber      int          `json:"page_number"`
	Score           int          `json:"score"`
	TotalQuestions  int          `json:"total_questions"`
	XPEarned        int          `json:"xp_earned"`
	Errors          []ErrorEntry `json:"errors"`
	IsPerfect       bool         `json:"is_perfect"`
	DurationSeconds int          `json:"duration_seconds"`
	LiveEventID     string       `json:"live_event_id,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}
