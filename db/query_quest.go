package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (queries *Queries) CreateQuest(ctx context.Context, quest *Quest) error {
	return queries.DB.WithContext(ctx).Create(quest).Error
}

func (queries *Queries) ListQuests(ctx context.Context) ([]Quest, error) {
	var quests []Quest
	err := queries.DB.WithContext(ctx).Order("sort ASC, date_created DESC").Find(&quests).Error
	return quests, err
}

func (queries *Queries) GetQuestByID(ctx context.Context, id uuid.UUID) (*Quest, error) {
	var quest Quest
	err := queries.DB.WithContext(ctx).First(&quest, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &quest, nil
}

func (queries *Queries) GetQuestBySlug(ctx context.Context, slug string) (*Quest, error) {
	var quest Quest
	err := queries.DB.WithContext(ctx).First(&quest, "slug = ?", slug).Error
	if err != nil {
		return nil, translate(err)
	}
	return &quest, nil
}

func (queries *Queries) UpdateQuest(ctx context.Context, quest *Quest) error {
	return queries.DB.WithContext(ctx).Save(quest).Error
}

func (queries *Queries) DeleteQuest(ctx context.Context, id uuid.UUID) error {
	result := queries.DB.WithContext(ctx).Delete(&Quest{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// QuestStats aggregates session outcomes for a quest, sourced from completed
// bookings that carry play statistics.
type QuestStats struct {
	Played      int64    `json:"played"`
	Won         int64    `json:"won"`
	AvgPlayTime *float64 `json:"avg_play_time"`
	BestWinTime *int     `json:"best_win_time"`
}

// GetQuestStats computes the raw numbers the auto fields derive from.
// Only completed bookings with a recorded play_time count as played.
func (queries *Queries) GetQuestStats(ctx context.Context, questID uuid.UUID) (*QuestStats, error) {
	var stats QuestStats

	completed := func() *gorm.DB {
		return queries.DB.WithContext(ctx).Model(&Booking{}).
			Joins("JOIN quest_sessions ON quest_sessions.id = bookings.quest_session_id").
			Where("quest_sessions.quest_id = ? AND bookings.status = ? AND bookings.play_time IS NOT NULL",
				questID, BookingCompleted)
	}

	if err := completed().Count(&stats.Played).Error; err != nil {
		return nil, err
	}
	if stats.Played == 0 {
		return &stats, nil
	}

	if err := completed().Where("bookings.winners = true").Count(&stats.Won).Error; err != nil {
		return nil, err
	}
	if err := completed().Select("AVG(bookings.play_time)").Scan(&stats.AvgPlayTime).Error; err != nil {
		return nil, err
	}
	if err := completed().Where("bookings.winners = true").
		Select("MIN(bookings.play_time)").Scan(&stats.BestWinTime).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

// UpdateQuestAutoStats writes derived statistics fields. Callers pass only
// the fields whose is-auto flag allows automatic updates.
func (queries *Queries) UpdateQuestAutoStats(ctx context.Context, questID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["date_updated"] = time.Now()
	return queries.DB.WithContext(ctx).Model(&Quest{}).
		Where("id = ?", questID).
		Updates(fields).Error
}
