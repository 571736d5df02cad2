package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

func (queries *Queries) CreateSession(ctx context.Context, session *QuestSession) error {
	return queries.DB.WithContext(ctx).Create(session).Error
}

// ListSessions returns sessions within [from, to), optionally filtered by
// quest. Bookings are preloaded so the handler can report availability
// without another round-trip.
func (queries *Queries) ListSessions(ctx context.Context, questID *uuid.UUID, from, to time.Time) ([]QuestSession, error) {
	query := queries.DB.WithContext(ctx).
		Preload("Bookings").
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Order("starts_at ASC")
	if questID != nil {
		query = query.Where("quest_id = ?", *questID)
	}

	var sessions []QuestSession
	err := query.Find(&sessions).Error
	return sessions, err
}

func (queries *Queries) GetSessionByID(ctx context.Context, id uuid.UUID) (*QuestSession, error) {
	var session QuestSession
	err := queries.DB.WithContext(ctx).Preload("Bookings").First(&session, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (queries *Queries) UpdateSession(ctx context.Context, session *QuestSession) error {
	return queries.DB.WithContext(ctx).Save(session).Error
}

// DeleteSession hard-deletes the row; bookings cascade with it.
func (queries *Queries) DeleteSession(ctx context.Context, id uuid.UUID) error {
	result := queries.DB.WithContext(ctx).Delete(&QuestSession{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
