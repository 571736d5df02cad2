package worker

import (
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/uxpromo/limboquest-api/db"
	"github.com/uxpromo/limboquest-api/service/mail"
	"github.com/uxpromo/limboquest-api/util"
)

// Task processor interface
type TaskProcessor interface {
	Start() error
}

// Redis task processor
type RedisTaskProcessor struct {
	// Asynq server
	server *asynq.Server

	// Dependencies
	queries     *db.Queries
	mailService mail.MailService
	config      *util.Config
}

// Constructor method for Redis task processor
func NewRedisTaskProcessor(
	redisOpts asynq.RedisClientOpt,
	queries *db.Queries,
	mailService mail.MailService,
	config *util.Config,
) TaskProcessor {
	return &RedisTaskProcessor{
		server: asynq.NewServer(redisOpts, asynq.Config{
			Queues: map[string]int{
				HIGH_IMPACT:   6,
				MEDIUM_IMPACT: 3,
				LOW_IMPACT:    1,
			},
		}),
		queries:     queries,
		mailService: mailService,
		config:      config,
	}
}

// Method to start the worker server
func (processor *RedisTaskProcessor) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(RecomputeQuestStats, processor.HandleRecomputeQuestStats)
	mux.HandleFunc(SendResetPassword, processor.HandleSendResetPassword)
	mux.HandleFunc(SendBookingConfirmation, processor.HandleSendBookingConfirmation)

	return processor.server.Start(mux)
}

// Helper: decode a task payload, logging the task name on failure
func decodePayload[T any](task *asynq.Task) (T, error) {
	var payload T
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		util.LOGGER.Error("failed to decode task payload", "task", task.Type(), "error", err)
		return payload, err
	}
	return payload, nil
}
