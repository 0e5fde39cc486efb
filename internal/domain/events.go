package domain

// LiveEvent is a time-boxed themed challenge. Its recipe fixes part of the
// question sequence and a perfect run earns bonus diamonds.
type LiveEvent struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	StartPage      int    `json:"start_page"`
	EndPage        int    `json:"end_page"`
	QuestionsCount int    `json:"questions_count"`
	Recipe         Recipe `json:"questions_recipe"`
	BonusDiamonds  int    `json:"bonus_diamonds_reward"`
	IsActive       bool   `json:"is_active"`
}

// Pages expands the event's page range into an ordered page list.
func (e LiveEvent) Pages() []int {
	if e.EndPage < e.StartPage {
		return nil
	}
	pages := make([]int, 0, e.EndPage-e.StartPage+1)
	for p := e.StartPage; p <= e.EndPage; p++ {
		pages = append(pages, p)
	}
	return pages
}

// QuestConfig is the static definition of a quest.
type QuestConfig struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Type           string `json:"type"`
	TargetValue    int    `json:"target_value"`
	XPReward       int    `json:"xp_reward"`
	DiamondsReward int    `json:"diamonds_reward"`
	Recipe         Recipe `json:"questions_recipe,omitempty"`
}

// PlayerQuest is a player's progress against one quest.
type PlayerQuest struct {
	QuestID   string `json:"quest_id"`
	Progress  int    `json:"progress"`
	Completed bool   `json:"is_completed"`
}

// Quiz lifecycle event types published to quest/achievement collaborators.
const (
	EventQuizCompleted = "quiz_completed"
	EventPerfectQuiz   = "perfect_quiz"
	EventLogin         = "login"
)

// QuizEvent is the detailed completion signal handed to notifier collaborators.
// Collaborators decide their own state changes; the reconciler does not inspect
// their results.
type QuizEvent struct {
	Type       string        `json:"type"`
	Score      int           `json:"score"`
	Total      int           `json:"total"`
	IsPerfect  bool          `json:"isPerfect"`
	PageNumber int           `json:"pageNumber"`
	Player     *PlayerRecord `json:"-"`
}
