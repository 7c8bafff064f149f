package mongo

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestNewEventRepository(t *testing.T) {
	db := &mongo.Database{}
	logger := slog.Default()

	repo := NewEventRepository(logger, db)

	assert.NotNil(t, repo)
	assert.IsType(t, &EventRepository{}, repo)
}

// Record and the list queries hit a live collection and are covered by
// integration environments
