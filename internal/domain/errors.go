package domain

import "errors"

var (
	// ErrNoQuestionsAvailable is returned when planning produced an empty
	// sequence; a session must not start.
	ErrNoQuestionsAvailable = errors.New("no questions available for this test")
	// ErrContentUnavailable indicates the page content source failed; fatal to
	// starting the test that requested it.
	ErrContentUnavailable = errors.New("page content unavailable")
	// ErrPlayerNotFound indicates no player record exists for the given id.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrAnswerNotExpected is returned for late or duplicate answer submissions;
	// callers drop it without mutating session state.
	ErrAnswerNotExpected = errors.New("no answer expected in current state")
	// ErrSessionComplete is returned when interacting with a finished session.
	ErrSessionComplete = errors.New("session already complete")
	// ErrEventNotFound indicates an unknown live event id.
	ErrEventNotFound = errors.New("live event not found")
	// ErrQuestNotFound indicates an unknown quest id.
	ErrQuestNotFound = errors.New("quest not found")
	// ErrQuestNotClaimable is returned when a quest reward cannot be claimed yet.
	ErrQuestNotClaimable = errors.New("quest reward not claimable")
	// ErrItemNotFound indicates an unknown store item id.
	ErrItemNotFound = errors.New("store item not found")
	// ErrItemAlreadyOwned is returned when buying an item already in the inventory.
	ErrItemAlreadyOwned = errors.New("store item already owned")
	// ErrInsufficientDiamonds is returned when the player cannot afford an item.
	ErrInsufficientDiamonds = errors.New("not enough diamonds")
	// ErrPageLocked is returned when starting a test on a page the player has
	// neither free access to nor purchased.
	ErrPageLocked = errors.New("page not unlocked")
)
