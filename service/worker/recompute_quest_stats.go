package worker

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/uxpromo/limboquest-api/util"
)

type RecomputeQuestStatsPayload struct {
	QuestID uuid.UUID `json:"quest_id"`
}

const RecomputeQuestStats = "recompute-quest-stats"

// HandleRecomputeQuestStats rebuilds a quest's derived statistics from its
// completed bookings: average time is the mean play time, passability the
// percentage of winning parties, best time the fastest winning play time.
// Only fields whose is-auto flag is set get written; a field switched to
// manual belongs to the admins.
func (processor *RedisTaskProcessor) HandleRecomputeQuestStats(ctx context.Context, task *asynq.Task) error {
	payload, err := decodePayload[RecomputeQuestStatsPayload](task)
	if err != nil {
		return err
	}

	quest, err := processor.queries.GetQuestByID(ctx, payload.QuestID)
	if err != nil {
		util.LOGGER.Error("background log", "task", RecomputeQuestStats, "quest_id", payload.QuestID, "error", err)
		return err
	}

	if !quest.IsAutoAverageTime && !quest.IsAutoPassability && !quest.IsAutoBestTime {
		// Everything manual, nothing to derive
		return nil
	}

	stats, err := processor.queries.GetQuestStats(ctx, quest.ID)
	if err != nil {
		util.LOGGER.Error("background log", "task", RecomputeQuestStats, "quest_id", quest.ID, "error", err)
		return err
	}
	if stats.Played == 0 {
		return nil
	}

	fields := map[string]any{}
	if quest.IsAutoAverageTime && stats.AvgPlayTime != nil {
		fields["average_time"] = int(math.Round(*stats.AvgPlayTime))
	}
	if quest.IsAutoPassability {
		fields["passability"] = int(math.Round(float64(stats.Won) / float64(stats.Played) * 100))
	}
	if quest.IsAutoBestTime && stats.BestWinTime != nil {
		fields["best_time"] = *stats.BestWinTime
	}

	if err := processor.queries.UpdateQuestAutoStats(ctx, quest.ID, fields); err != nil {
		util.LOGGER.Error("background log", "task", RecomputeQuestStats, "quest_id", quest.ID, "error", err)
		return err
	}

	util.LOGGER.Info("background log", "task", RecomputeQuestStats, "quest_id", quest.ID, "played", stats.Played)
	return nil
}
