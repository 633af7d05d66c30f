package tasks

import (
	"context"

	"cms0/internal/services"
	"cms0/internal/utils/logger"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// TaskHandler handles task processing with improved error handling and logging
type TaskHandler struct {
	db     *gorm.DB
	users  *services.UserService
	logger *logger.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(db *gorm.DB, users *services.UserService) *TaskHandler {
	return &TaskHandler{
		db:     db,
		users:  users,
		logger: logger.New("task_handler"),
	}
}

// HandleCustomRoleSweep deletes non-system custom-user-* roles that no user
// points at anymore. Safe to run repeatedly.
func (h *TaskHandler) HandleCustomRoleSweep(ctx context.Context, t *asynq.Task) error {
	swept, err := h.users.SweepOrphanCustomRoles(ctx)
	if err != nil {
		return h.logger.Error("custom role sweep failed", err)
	}

	if swept > 0 {
		h.logger.Success("custom role sweep reclaimed %d role(s)", swept)
	}
	return nil
}
