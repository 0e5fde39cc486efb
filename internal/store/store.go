package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"quran-quiz-service/internal/domain"
	"quran-quiz-service/internal/quiz"
)

// freePages are open to every player without a purchase.
var freePages = map[int]bool{1: true, 2: true, 602: true, 603: true, 604: true}

// PageItemID is the inventory id of a page unlock.
func PageItemID(page int) string {
	return fmt.Sprintf("page_%d", page)
}

// Service sells store items for diamonds and answers page-availability
// questions. Item configs are immutable after construction; purchases mutate
// the player aggregate and persist it without blocking the caller.
type Service struct {
	items   map[string]domain.StoreItem
	order   []string
	players quiz.PlayerStore
	detach  quiz.Detach
	log     *zap.Logger
}

func NewService(items []domain.StoreItem, players quiz.PlayerStore, detach quiz.Detach, log *zap.Logger) *Service {
	if detach == nil {
		detach = quiz.GoDetach
	}
	if log == nil {
		log = zap.NewNop()
	}
	byID := make(map[string]domain.StoreItem, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		byID[item.ID] = item
		order = append(order, item.ID)
	}
	return &Service{
		items:   byID,
		order:   order,
		players: players,
		detach:  detach,
		log:     log,
	}
}

// Items returns the catalog in definition order.
func (s *Service) Items() []domain.StoreItem {
	out := make([]domain.StoreItem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Purchase deducts the item's price and adds it to the player's inventory.
// Buying an owned item, or one the player cannot afford, fails without
// mutating anything.
func (s *Service) Purchase(ctx context.Context, player *domain.PlayerRecord, itemID string) (domain.StoreItem, error) {
	item, ok := s.items[itemID]
	if !ok {
		return domain.StoreItem{}, domain.ErrItemNotFound
	}
	if player.HasItem(item.ID) {
		return domain.StoreItem{}, domain.ErrItemAlreadyOwned
	}
	if player.Diamonds < item.Price {
		return domain.StoreItem{}, domain.ErrInsufficientDiamonds
	}

	player.Diamonds -= item.Price
	player.Inventory = append(player.Inventory, item.ID)

	saved := *player
	saved.Inventory = append([]string(nil), player.Inventory...)
	saved.Achievements = append([]string(nil), player.Achievements...)
	s.detach(func() {
		if err := s.players.Save(context.Background(), &saved); err != nil {
			s.log.Warn("purchase save failed",
				zap.String("player", saved.ID),
				zap.String("item", item.ID),
				zap.Error(err))
		}
	})
	return item, nil
}

// PageAvailable reports whether the player may start a test on the page:
// either it is free for everyone or its unlock is in the inventory.
func (s *Service) PageAvailable(player *domain.PlayerRecord, page int) bool {
	return freePages[page] || player.HasItem(PageItemID(page))
}

// DefaultItems is the compiled-in store catalog, used when no stored
// configuration is available.
func DefaultItems() []domain.StoreItem {
	items := make([]domain.StoreItem, 0, 8)
	for page := 3; page <= 10; page++ {
		items = append(items, domain.StoreItem{
			ID:         PageItemID(page),
			Title:      fmt.Sprintf("فتح الصفحة %d", page),
			Price:      50,
			PageNumber: page,
		})
	}
	return items
}
