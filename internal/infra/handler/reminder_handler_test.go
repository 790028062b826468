package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"github.com/KasumiMercury/primind-med-remind/internal/app"
	"github.com/KasumiMercury/primind-med-remind/internal/domain"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/handler"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/notify"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/repository"
	"github.com/KasumiMercury/primind-med-remind/internal/testutil"
)

var referenceInstant = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func setupTestRouter(t *testing.T, db *gorm.DB, backend domain.NotificationBackend) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewFake()
	clk.Set(referenceInstant)

	if backend == nil {
		backend = notify.NewTimerBackend(clk, notify.TimerConfig{})
	}

	sc := app.SchedulerContext{
		Reminders: repository.NewReminderRepository(db, clk),
		Logs:      repository.NewActionLogRepository(db),
		Backend:   backend,
		Clock:     clk,
		Location:  time.UTC,
	}

	scheduler := app.NewNotificationScheduler(sc, app.SchedulerConfig{}, nil, nil)
	loop := app.NewReconciliationLoop(sc, scheduler, app.ReconcileConfig{}, nil)
	h := handler.NewReminderHandler(app.NewReminderUseCase(sc, scheduler, loop, nil))

	router := gin.New()
	api := router.Group("/api/v1")
	h.RegisterRoutes(api)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())

	return out
}

func createReminder(t *testing.T, router *gin.Engine, body map[string]any) handler.ReminderResponse {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/reminders", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return decode[handler.ReminderResponse](t, rec)
}

func aspirin() map[string]any {
	return map[string]any{
		"medication_name": "Aspirin",
		"times":           []string{"08:00", "20:00"},
		"recurrence":      map[string]any{"type": "daily"},
	}
}

func TestCreateReminderHandlerSuccess(t *testing.T) {
	tests := []struct {
		name       string
		recurrence map[string]any
		expected   handler.RecurrenceResponse
		rrule      string
	}{
		{
			name:       "daily",
			recurrence: map[string]any{"type": "daily"},
			expected:   handler.RecurrenceResponse{Type: "daily"},
			rrule:      "FREQ=DAILY",
		},
		{
			name:       "weekdays",
			recurrence: map[string]any{"type": "weekdays", "weekdays": []int{1, 3, 5}},
			expected:   handler.RecurrenceResponse{Type: "weekdays", Weekdays: []int{1, 3, 5}},
			rrule:      "FREQ=WEEKLY",
		},
		{
			name:       "interval hours",
			recurrence: map[string]any{"type": "interval", "interval_hours": 6},
			expected:   handler.RecurrenceResponse{Type: "interval", IntervalHours: 6},
			rrule:      "FREQ=HOURLY",
		},
		{
			name:       "custom days",
			recurrence: map[string]any{"type": "custom", "interval_days": 3},
			expected:   handler.RecurrenceResponse{Type: "custom", IntervalDays: 3},
			rrule:      "FREQ=DAILY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDB := testutil.SetupSQLiteDB(t)
			router := setupTestRouter(t, testDB.DB, nil)

			resp := createReminder(t, router, map[string]any{
				"medication_name": "Metformin",
				"times":           []string{"08:00"},
				"recurrence":      tt.recurrence,
			})

			assert.NotEmpty(t, resp.ID)
			assert.Equal(t, "Metformin", resp.MedicationName)
			assert.Equal(t, []string{"08:00"}, resp.Times)
			assert.Equal(t, tt.expected, resp.Recurrence)
			assert.Contains(t, resp.RRule, tt.rrule)
			assert.True(t, resp.Enabled)
			assert.Empty(t, resp.Warnings)

			rec := doJSON(t, router, http.MethodGet, "/api/v1/reminders", nil)
			require.Equal(t, http.StatusOK, rec.Code)

			list := decode[handler.RemindersResponse](t, rec)
			assert.Equal(t, int32(1), list.Count)
		})
	}
}

func TestCreateReminderHandlerError(t *testing.T) {
	testDB := testutil.SetupSQLiteDB(t)
	router := setupTestRouter(t, testDB.DB, nil)

	tests := []struct {
		name           string
		requestBody    map[string]any
		expectedStatus int
		expectedField  string
	}{
		{
			name: "missing medication name",
			requestBody: map[string]any{
				"times":      []string{"08:00"},
				"recurrence": map[string]any{"type": "daily"},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "blank medication name",
			requestBody: map[string]any{
				"medication_name": "  ",
				"times":           []string{"08:00"},
				"recurrence":      map[string]any{"type": "daily"},
			},
			expectedStatus: http.StatusBadRequest,
			expectedField:  "medication_name",
		},
		{
			name: "empty times",
			requestBody: map[string]any{
				"medication_name": "Aspirin",
				"times":           []string{},
				"recurrence":      map[string]any{"type": "daily"},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "malformed time",
			requestBody: map[string]any{
				"medication_name": "Aspirin",
				"times":           []string{"8am"},
				"recurrence":      map[string]any{"type": "daily"},
			},
			expectedStatus: http.StatusBadRequest,
			expectedField:  "times[0]",
		},
		{
			name: "missing recurrence type",
			requestBody: map[string]any{
				"medication_name": "Aspirin",
				"times":           []string{"08:00"},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "weekdays out of range",
			requestBody: map[string]any{
				"medication_name": "Aspirin",
				"times":           []string{"08:00"},
				"recurrence":      map[string]any{"type": "weekdays", "weekdays": []int{7}},
			},
			expectedStatus: http.StatusBadRequest,
			expectedField:  "recurrence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/v1/reminders", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, rec.Code)

			resp := decode[handler.ErrorResponse](t, rec)
			assert.Equal(t, "validation_error", resp.Error)
			assert.Equal(t, tt.expectedField, resp.Field)
		})
	}
}

func TestReminderLifecycleHandler(t *testing.T) {
	testDB := testutil.SetupSQLiteDB(t)
	router := setupTestRouter(t, testDB.DB, nil)

	created := createReminder(t, router, aspirin())
	path := "/api/v1/reminders/" + created.ID

	rec := doJSON(t, router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[handler.ReminderResponse](t, rec).ID)

	rec = doJSON(t, router, http.MethodPut, path, map[string]any{"times": []string{"07:30"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[handler.ReminderResponse](t, rec)
	assert.Equal(t, "Aspirin", updated.MedicationName)
	assert.Equal(t, []string{"07:30"}, updated.Times)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	rec = doJSON(t, router, http.MethodPost, path+"/enabled", map[string]any{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[handler.ReminderResponse](t, rec).Enabled)

	rec = doJSON(t, router, http.MethodPost, path+"/outcomes", map[string]any{
		"scheduled_time": "2024-01-01T07:30:00Z",
		"status":         "taken",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	entry := decode[handler.LogEntryResponse](t, rec)
	assert.Equal(t, created.ID, entry.ReminderID)
	assert.Equal(t, "taken", entry.Status)
	assert.Equal(t, []string{"07:30"}, entry.Times)

	rec = doJSON(t, router, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, path+"/logs?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	logs := decode[handler.LogEntriesResponse](t, rec)
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, "Aspirin", logs.Logs[0].MedicationName)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/logs/"+entry.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[handler.LogEntriesResponse](t, rec).Count)
}

func TestReminderHandlerErrorMapping(t *testing.T) {
	testDB := testutil.SetupSQLiteDB(t)
	router := setupTestRouter(t, testDB.DB, nil)

	unknown := domain.NewReminderID().String()

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "unknown reminder",
			method:         http.MethodGet,
			path:           "/api/v1/reminders/" + unknown,
			expectedStatus: http.StatusNotFound,
			expectedError:  "not_found",
		},
		{
			name:           "malformed reminder id",
			method:         http.MethodDelete,
			path:           "/api/v1/reminders/not-a-uuid",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "validation_error",
		},
		{
			name:           "enabled flag missing",
			method:         http.MethodPost,
			path:           "/api/v1/reminders/" + unknown + "/enabled",
			body:           map[string]any{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "validation_error",
		},
		{
			name:           "invalid outcome status",
			method:         http.MethodPost,
			path:           "/api/v1/reminders/" + unknown + "/outcomes",
			body:           map[string]any{"scheduled_time": "2024-01-01T08:00:00Z", "status": "forgot"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "validation_error",
		},
		{
			name:           "negative log limit",
			method:         http.MethodGet,
			path:           "/api/v1/logs?limit=-1",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "validation_error",
		},
		{
			name:           "unknown log entry",
			method:         http.MethodDelete,
			path:           "/api/v1/logs/" + domain.NewLogEntryID().String(),
			expectedStatus: http.StatusNotFound,
			expectedError:  "not_found",
		},
		{
			name:           "unknown event type",
			method:         http.MethodPost,
			path:           "/api/v1/notifications/events",
			body:           map[string]any{"type": "dismissed", "trigger_id": "x"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "validation_error",
		},
		{
			name:           "unknown reconcile reason",
			method:         http.MethodPost,
			path:           "/api/v1/reconcile?reason=whenever",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "validation_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedError, decode[handler.ErrorResponse](t, rec).Error)
		})
	}
}

func TestSnoozeAndNotificationEventsHandler(t *testing.T) {
	testDB := testutil.SetupSQLiteDB(t)
	router := setupTestRouter(t, testDB.DB, nil)

	created := createReminder(t, router, aspirin())

	rec := doJSON(t, router, http.MethodPost, "/api/v1/reminders/"+created.ID+"/snooze", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	snooze := decode[handler.SnoozeResponse](t, rec)
	assert.True(t, strings.HasPrefix(snooze.TriggerID, "snooze_"))
	assert.Equal(t, referenceInstant.Add(10*time.Minute), snooze.FiresAt.UTC())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/notifications/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	status := decode[handler.StatusResponse](t, rec)
	assert.Len(t, status.Live, 3)
	assert.Len(t, status.Slots, 2)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/notifications/events", map[string]any{
		"type":       "action_invoked",
		"trigger_id": created.ID + "_0",
		"fires_at":   "2024-01-01T08:00:00Z",
		"action":     "taken",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/reminders/"+created.ID+"/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	logs := decode[handler.LogEntriesResponse](t, rec)
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, "taken", logs.Logs[0].Status)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), logs.Logs[0].ScheduledTime.UTC())
}

func TestUpcomingAndReconcileHandler(t *testing.T) {
	testDB := testutil.SetupSQLiteDB(t)
	router := setupTestRouter(t, testDB.DB, nil)

	created := createReminder(t, router, aspirin())

	rec := doJSON(t, router, http.MethodGet, "/api/v1/occurrences/upcoming", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	upcoming := decode[handler.OccurrencesResponse](t, rec)
	require.Equal(t, int32(2), upcoming.Count)
	assert.Equal(t, "20:00", upcoming.Occurrences[0].TimeOfDay)
	assert.Equal(t, created.ID+"_1", upcoming.Occurrences[0].SlotID)
	assert.Equal(t, "08:00", upcoming.Occurrences[1].TimeOfDay)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/reconcile", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[handler.ReconcileResponse](t, rec)
	assert.Equal(t, app.ReasonForeground, report.Reason)
	assert.Equal(t, 1, report.Reminders)
	assert.Equal(t, 2, report.Kept)
	assert.Zero(t, report.Armed)
}

func TestDataManagementHandler(t *testing.T) {
	testDB := testutil.SetupSQLiteDB(t)
	router := setupTestRouter(t, testDB.DB, nil)

	created := createReminder(t, router, aspirin())
	path := "/api/v1/reminders/" + created.ID

	outcome := map[string]any{
		"scheduled_time": "2024-01-01T08:00:00Z",
		"status":         "taken",
	}

	rec := doJSON(t, router, http.MethodPost, path+"/outcomes", outcome)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodDelete, path+"/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[handler.DeletedLogsResponse](t, rec).Deleted)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/reminders/not-a-uuid/logs", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/notifications/cancel-all", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[handler.CancelledResponse](t, rec).Cancelled)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/notifications/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[handler.StatusResponse](t, rec).Live)

	rec = doJSON(t, router, http.MethodPost, path+"/outcomes", outcome)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/data", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, handler.ClearDataResponse{Reminders: 1, Logs: 1}, decode[handler.ClearDataResponse](t, rec))

	rec = doJSON(t, router, http.MethodGet, "/api/v1/reminders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[handler.RemindersResponse](t, rec).Count)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[handler.LogEntriesResponse](t, rec).Count)
}

func TestBackendRefusalReturnsAccepted(t *testing.T) {
	ctrl := gomock.NewController(t)

	backend := domain.NewMockNotificationBackend(ctrl)
	backend.EXPECT().Horizon().Return(time.Duration(0)).AnyTimes()
	backend.EXPECT().ListScheduled(gomock.Any()).Return(nil, nil).AnyTimes()
	backend.EXPECT().Cancel(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	backend.EXPECT().Schedule(gomock.Any(), gomock.Any()).Return(domain.ErrTriggerRejected).AnyTimes()

	testDB := testutil.SetupSQLiteDB(t)
	router := setupTestRouter(t, testDB.DB, backend)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/reminders", aspirin())
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	resp := decode[handler.ReminderResponse](t, rec)
	assert.NotEmpty(t, resp.ID)
	assert.Len(t, resp.Warnings, 2)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/reminders/"+resp.ID+"/snooze", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	errResp := decode[handler.ErrorResponse](t, rec)
	assert.Equal(t, "backend_scheduling_error", errResp.Error)
	assert.Len(t, errResp.Warnings, 1)
}

func TestReminderHandlerPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDB(t)
	defer testDB.TeardownTestDB(t)

	router := setupTestRouter(t, testDB.DB, nil)

	created := createReminder(t, router, aspirin())

	rec := doJSON(t, router, http.MethodGet, "/api/v1/reminders/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[handler.ReminderResponse](t, rec)
	assert.Equal(t, created.Times, got.Times)
	assert.Equal(t, created.Recurrence, got.Recurrence)
}
