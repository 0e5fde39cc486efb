package domain

import "time"

// PlayerRecord is the persistent player aggregate. It is owned by exactly one
// active session at a time; the reconciler mutates it and publishes the result.
type PlayerRecord struct {
	ID                    string    `json:"id"`
	Username              string    `json:"username"`
	XP                    int       `json:"xp"`
	Diamonds              int       `json:"diamonds"`
	TotalQuizzesCompleted int       `json:"total_quizzes_completed"`
	TotalCorrectAnswers   int       `json:"total_correct_answers"`
	TotalWrongAnswers     int       `json:"total_wrong_answers"`
	TotalPerfectQuizzes   int       `json:"total_perfect_quizzes"`
	Inventory             []string  `json:"inventory"`
	Achievements          []string  `json:"achievements"`
	CreatedAt             time.Time `json:"created_at"`
}

// NewPlayerRecord seeds the default aggregate for a first-time player.
func NewPlayerRecord(id, username string, now time.Time) *PlayerRecord {
	return &PlayerRecord{
		ID:           id,
		Username:     username,
		Diamonds:     100,
		Inventory:    []string{},
		Achievements: []string{},
		CreatedAt:    now,
	}
}

// HasAchievement reports whether the given achievement has been unlocked.
func (p *PlayerRecord) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// HasItem reports whether the given store item is in the player's inventory.
func (p *PlayerRecord) HasItem(id string) bool {
	for _, item := range p.Inventory {
		if item == id {
			return true
		}
	}
	return false
}

// StoreItem is one purchasable entry of the diamond store. Page unlocks carry
// the page they open up.
type StoreItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Price      int    `json:"price_diamonds"`
	PageNumber int    `json:"page_number,omitempty"`
}
