package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-med-remind/internal/app"
)

type ReminderHandler struct {
	useCase app.ReminderUseCase
}

func NewReminderHandler(useCase app.ReminderUseCase) *ReminderHandler {
	return &ReminderHandler{
		useCase: useCase,
	}
}

func (h *ReminderHandler) CreateReminder(c *gin.Context) {
	ctx := c.Request.Context()

	slog.InfoContext(ctx, "handling create reminder request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	var req CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)

		return
	}

	result, err := h.useCase.CreateReminder(ctx, app.CreateReminderInput{
		MedicationName: req.MedicationName,
		Times:          req.Times,
		Recurrence:     req.Recurrence.toInput(),
		Enabled:        req.Enabled,
	})
	if err != nil {
		h.handleError(c, err)

		return
	}

	slog.InfoContext(ctx, "reminder created successfully",
		"reminder_id", result.Reminder.ID,
		"warnings", len(result.Warnings),
	)
	c.JSON(statusFor(http.StatusCreated, result), FromResultDTO(result))
}

func (h *ReminderHandler) ListReminders(c *gin.Context) {
	output, err := h.useCase.ListReminders(c.Request.Context())
	if err != nil {
		h.handleError(c, err)

		return
	}

	c.JSON(http.StatusOK, FromDTOs(output))
}

func (h *ReminderHandler) GetReminder(c *gin.Context) {
	output, err := h.useCase.GetReminder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)

		return
	}

	c.JSON(http.StatusOK, FromDTO(output))
}

func (h *ReminderHandler) UpdateReminder(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	slog.InfoContext(ctx, "handling update reminder request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"reminder_id", id,
	)

	var req UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)

		return
	}

	input := app.UpdateReminderInput{
		ID:             id,
		MedicationName: req.MedicationName,
		Times:          req.Times,
		Enabled:        req.Enabled,
	}

	if req.Recurrence != nil {
		recurrence := req.Recurrence.toInput()
		input.Recurrence = &recurrence
	}

	result, err := h.useCase.UpdateReminder(ctx, input)
	if err != nil {
		h.handleError(c, err)

		return
	}

	slog.InfoContext(ctx, "reminder updated successfully",
		"reminder_id", id,
		"warnings", len(result.Warnings),
	)
	c.JSON(statusFor(http.StatusOK, result), FromResultDTO(result))
}

func (h *ReminderHandler) DeleteReminder(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	slog.InfoContext(ctx, "handling delete reminder request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"reminder_id", id,
	)

	if err := h.useCase.DeleteReminder(ctx, app.DeleteReminderInput{ID: id}); err != nil {
		h.handleError(c, err)

		return
	}

	slog.InfoContext(ctx, "reminder deleted successfully",
		"reminder_id", id,
	)
	c.Status(http.StatusNoContent)
}

func (h *ReminderHandler) SetEnabled(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)

		return
	}

	result, err := h.useCase.SetEnabled(ctx, app.SetEnabledInput{ID: id, Enabled: *req.Enabled})
	if err != nil {
		h.handleError(c, err)

		return
	}

	slog.InfoContext(ctx, "reminder enabled state updated successfully",
		"reminder_id", id,
		"enabled", result.Reminder.Enabled,
	)
	c.JSON(statusFor(http.StatusOK, result), FromResultDTO(result))
}

func (h *ReminderHandler) RecordOutcome(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req RecordOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)

		return
	}

	output, err := h.useCase.RecordOutcome(ctx, app.RecordOutcomeInput{
		ReminderID:    id,
		ScheduledTime: req.ScheduledTime,
		Status:        req.Status,
	})
	if err != nil {
		h.handleError(c, err)

		return
	}

	slog.InfoContext(ctx, "outcome recorded successfully",
		"reminder_id", id,
		"log_id", output.ID,
		"status", output.Status,
	)
	c.JSON(http.StatusCreated, FromLogDTO(output))
}

func (h *ReminderHandler) Snooze(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	// The body is optional; without one the current occurrence is snoozed.
	var req SnoozeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.bindError(c, err)

			return
		}
	}

	output, err := h.useCase.Snooze(ctx, app.SnoozeInput{ReminderID: id, ScheduledTime: req.ScheduledTime})
	if err != nil {
		h.handleError(c, err)

		return
	}

	c.JSON(http.StatusCreated, SnoozeResponse{TriggerID: output.TriggerID, FiresAt: output.FiresAt})
}

func (h *ReminderHandler) ListReminderLogs(c *gin.Context) {
	h.listLogs(c, c.Param("id"))
}

func (h *ReminderHandler) ListLogs(c *gin.Context) {
	h.listLogs(c, "")
}

func (h *ReminderHandler) listLogs(c *gin.Context, reminderID string) {
	var req ListLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindError(c, err)

		return
	}

	output, err := h.useCase.ListLogs(c.Request.Context(), app.ListLogsInput{
		ReminderID: reminderID,
		Limit:      req.Limit,
	})
	if err != nil {
		h.handleError(c, err)

		return
	}

	c.JSON(http.StatusOK, FromLogDTOs(output))
}

func (h *ReminderHandler) DeleteLog(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if err := h.useCase.DeleteLog(ctx, app.DeleteLogInput{ID: id}); err != nil {
		h.handleError(c, err)

		return
	}

	slog.InfoContext(ctx, "log entry deleted successfully",
		"log_id", id,
	)
	c.Status(http.StatusNoContent)
}

func (h *ReminderHandler) DeleteReminderLogs(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	n, err := h.useCase.DeleteLogsForReminder(ctx, app.DeleteLogsForReminderInput{ReminderID: id})
	if err != nil {
		h.handleError(c, err)

		return
	}

	c.JSON(http.StatusOK, DeletedLogsResponse{Deleted: n})
}

func (h *ReminderHandler) Upcoming(c *gin.Context) {
	output, err := h.useCase.Upcoming(c.Request.Context())
	if err != nil {
		h.handleError(c, err)

		return
	}

	c.JSON(http.StatusOK, FromOccurrenceDTOs(output))
}

func (h *ReminderHandler) DeliverEvent(c *gin.Context) {
	ctx := c.Request.Context()

	var req NotificationEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)

		return
	}

	slog.InfoContext(ctx, "handling notification event",
		"type", req.Type,
		"trigger_id", req.TriggerID,
		"action", req.Action,
	)

	err := h.useCase.DeliverEvent(ctx, app.DeliverEventInput{
		Type:      req.Type,
		TriggerID: req.TriggerID,
		FiresAt:   req.FiresAt,
		Action:    req.Action,
		Data:      req.Data,
	})
	if err != nil {
		h.handleError(c, err)

		return
	}

	c.Status(http.StatusAccepted)
}

func (h *ReminderHandler) Status(c *gin.Context) {
	output, err := h.useCase.Status(c.Request.Context())
	if err != nil {
		h.handleError(c, err)

		return
	}

	c.JSON(http.StatusOK, FromStatusDTO(output))
}

func (h *ReminderHandler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindError(c, err)

		return
	}

	if req.Reason == "" {
		req.Reason = app.ReasonForeground
	}

	report, err := h.useCase.Reconcile(c.Request.Context(), req.Reason)
	if err != nil {
		h.handleError(c, err)

		return
	}

	c.JSON(http.StatusOK, FromReconcileReport(report))
}

func (h *ReminderHandler) CancelAllNotifications(c *gin.Context) {
	n, err := h.useCase.CancelAllNotifications(c.Request.Context())
	if err != nil {
		h.handleError(c, err)

		return
	}

	c.JSON(http.StatusOK, CancelledResponse{Cancelled: n})
}

func (h *ReminderHandler) ClearAllData(c *gin.Context) {
	ctx := c.Request.Context()

	output, err := h.useCase.ClearAllData(ctx)
	if err != nil {
		h.handleError(c, err)

		return
	}

	slog.InfoContext(ctx, "all data cleared successfully",
		"reminders", output.Reminders,
		"logs", output.Logs,
	)
	c.JSON(http.StatusOK, FromClearDataDTO(output))
}

func (h *ReminderHandler) bindError(c *gin.Context, err error) {
	slog.WarnContext(c.Request.Context(), "request validation failed",
		"error", err,
		"path", c.Request.URL.Path,
	)
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
		Field:   "",
	})
}

func (h *ReminderHandler) handleError(c *gin.Context, err error) {
	var validationErr *app.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Message,
			Field:   validationErr.Field,
		})

		return
	}

	if errors.Is(err, app.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "resource not found",
			Field:   "",
		})

		return
	}

	if failures := app.BackendSchedulingErrors(err); len(failures) > 0 {
		warnings := make([]string, 0, len(failures))
		for _, f := range failures {
			warnings = append(warnings, f.Error())
		}

		c.JSON(http.StatusAccepted, ErrorResponse{
			Error:    "backend_scheduling_error",
			Message:  "the notification backend did not accept every trigger",
			Warnings: warnings,
		})

		return
	}

	slog.ErrorContext(c.Request.Context(), "request failed",
		"error", err,
		"path", c.Request.URL.Path,
	)

	if errors.Is(err, app.ErrStorage) {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_error",
			Message: "failed to access reminder storage",
			Field:   "",
		})

		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
		Field:   "",
	})
}

// statusFor downgrades a success to 202 when the reminder was saved but some
// of its triggers were refused.
func statusFor(ok int, result app.ReminderResult) int {
	if len(result.Warnings) > 0 {
		return http.StatusAccepted
	}

	return ok
}

func (h *ReminderHandler) RegisterRoutes(router *gin.RouterGroup) {
	reminders := router.Group("/reminders")
	{
		reminders.POST("", h.CreateReminder)
		reminders.GET("", h.ListReminders)
		reminders.GET("/:id", h.GetReminder)
		reminders.PUT("/:id", h.UpdateReminder)
		reminders.DELETE("/:id", h.DeleteReminder)
		reminders.POST("/:id/enabled", h.SetEnabled)
		reminders.POST("/:id/outcomes", h.RecordOutcome)
		reminders.POST("/:id/snooze", h.Snooze)
		reminders.GET("/:id/logs", h.ListReminderLogs)
		reminders.DELETE("/:id/logs", h.DeleteReminderLogs)
	}

	logs := router.Group("/logs")
	{
		logs.GET("", h.ListLogs)
		logs.DELETE("/:id", h.DeleteLog)
	}

	router.GET("/occurrences/upcoming", h.Upcoming)

	notifications := router.Group("/notifications")
	{
		notifications.POST("/events", h.DeliverEvent)
		notifications.GET("/status", h.Status)
		notifications.POST("/cancel-all", h.CancelAllNotifications)
	}

	router.POST("/reconcile", h.Reconcile)
	router.DELETE("/data", h.ClearAllData)
}
