package messaging

import (
	"context"

	"github.com/feral-file/achievement-minter/internal/domain"
)

// Publisher defines the interface for announcing minted achievements to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishAchievementMinted publishes an achievement-minted event
	PublishAchievementMinted(ctx context.Context, event *domain.AchievementMinted) error
	// Close closes the connection
	Close()
}
