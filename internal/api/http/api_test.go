package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	gohttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/api/http/handlers"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/classify"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/notify"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/persistence"
	"github.com/spec-kit/grievance-service/internal/registry"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/routing"
	"github.com/spec-kit/grievance-service/internal/service"
	"github.com/spec-kit/grievance-service/internal/worker"
)

const testAdminSecret = "correct-horse-battery"

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, _ string) domain.ExtractionResult {
	return domain.ExtractionResult{
		IssueType:             "water leakage",
		Location:              "Karol Bagh",
		ResponsibleDepartment: "Delhi Jal Board",
		Priority:              domain.PriorityMedium,
		Confidence:            0.9,
		Summary:               "Water supply issue reported",
	}
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	store, err := persistence.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(store.Close)

	reg, err := registry.New(registry.Defaults())
	require.NoError(t, err)

	engine := routing.NewEngine(config.RoutingConfig{
		UrgentSLAFactor:     0.5,
		UrgentSLAFloorHours: 6,
	}, reg, classify.Default())

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	complaintService := service.NewComplaintService(service.Dependencies{
		ComplaintRepo: repository.NewComplaintRepository(store.Handle()),
		Extractor:     stubExtractor{},
		Router:        engine,
		Registry:      reg,
		Dispatcher:    dispatcher,
		Logger:        zap.NewNop(),
	})

	pool := worker.NewPool(1, 4, zap.NewNop())
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	// No sender configured: pushes are unreachable, exactly like a
	// deployment without the bot token.
	notifier := notify.NewService(complaintService, reg, nil, pool, zap.NewNop(), metrics)
	notifier.RegisterHandlers(dispatcher)

	adminCfg := config.AdminConfig{Secret: testAdminSecret, JWTSecret: "test-jwt-secret", SessionTTLMinutes: 30}
	tokens := auth.NewTokenManager(adminCfg.JWTSecret, adminCfg.SessionTTLMinutes)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:          handlers.NewHealthHandler("grievance-service", "test", store, nil),
		Complaints:      handlers.NewComplaintsHandler(complaintService, reg),
		Admin:           handlers.NewAdminHandler(complaintService, notifier, reg, tokens, adminCfg, metrics),
		AdminMiddleware: auth.NewAdminMiddleware(adminCfg, tokens),
	})
	return app
}

func jsonRequest(method, path string, payload any) *gohttp.Request {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody(t *testing.T, res *gohttp.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func errorCode(body map[string]any) string {
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errObj["code"].(string)
	return code
}

func submitComplaint(t *testing.T, app *fiber.App, ref, text string) map[string]any {
	t.Helper()
	res, err := app.Test(jsonRequest("POST", "/api/complaints", map[string]any{
		"submitter_reference": ref,
		"text":                text,
	}), 5000)
	require.NoError(t, err)
	require.Equal(t, gohttp.StatusCreated, res.StatusCode)
	return decodeBody(t, res)
}

func TestSubmitComplaint(t *testing.T) {
	app := newTestApp(t)

	body := submitComplaint(t, app, "web:itest",
		"There is continuous water leakage near the Karol Bagh metro station")

	assert.Equal(t, "SF-0001", body["id"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "water", body["department"])
	assert.Equal(t, "Delhi Jal Board", body["department_name"])
	assert.Equal(t, "medium", body["priority"])
	assert.EqualValues(t, 72, body["sla_hours"])
	assert.NotEmpty(t, body["created_at"])
}

func TestSubmitComplaintMintsReferenceWhenMissing(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(jsonRequest("POST", "/api/complaints", map[string]any{
		"text": "Streetlight has been flickering all week on our lane",
	}), 5000)
	require.NoError(t, err)
	require.Equal(t, gohttp.StatusCreated, res.StatusCode)
	body := decodeBody(t, res)

	res, err = app.Test(jsonRequest("GET", "/api/complaints/"+body["id"].(string), nil), 5000)
	require.NoError(t, err)
	require.Equal(t, gohttp.StatusOK, res.StatusCode)
	full := decodeBody(t, res)
	assert.Contains(t, full["submitter_reference"], "web:")
}

func TestSubmitComplaintValidation(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(jsonRequest("POST", "/api/complaints", map[string]any{
		"submitter_reference": "web:itest",
		"text":                "too short",
	}), 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(decodeBody(t, res)))

	res, err = app.Test(jsonRequest("POST", "/api/complaints", map[string]any{
		"submitter_reference": "web:itest",
	}), 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusBadRequest, res.StatusCode)
}

func TestGetComplaintAcceptsAnyPadding(t *testing.T) {
	app := newTestApp(t)
	submitComplaint(t, app, "web:itest", "Water pressure has dropped badly in our block since Monday")

	for _, id := range []string{"SF-0001", "SF-1", "sf-001"} {
		res, err := app.Test(jsonRequest("GET", "/api/complaints/"+id, nil), 5000)
		require.NoError(t, err)
		require.Equal(t, gohttp.StatusOK, res.StatusCode, "id %q", id)
		body := decodeBody(t, res)
		assert.Equal(t, "SF-0001", body["id"])
		assert.Equal(t, "Water pressure has dropped badly in our block since Monday", body["raw_text"])
	}
}

func TestGetComplaintNotFound(t *testing.T) {
	app := newTestApp(t)

	for _, id := range []string{"SF-4242", "nonsense"} {
		res, err := app.Test(jsonRequest("GET", "/api/complaints/"+id, nil), 5000)
		require.NoError(t, err)
		assert.Equal(t, gohttp.StatusNotFound, res.StatusCode, "id %q", id)
		assert.Equal(t, "NOT_FOUND", errorCode(decodeBody(t, res)))
	}
}

func TestListComplaintsFiltersAndPagination(t *testing.T) {
	app := newTestApp(t)
	submitComplaint(t, app, "web:a", "Emergency! Water pipe burst flooding the street near Connaught Place")
	submitComplaint(t, app, "web:b", "Water leaking slowly from the supply line near the park gate")
	submitComplaint(t, app, "web:c", "Water bill overcharge issue for my house in Rohini sector 7")

	res, err := app.Test(jsonRequest("GET", "/api/complaints?priority=urgent", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, gohttp.StatusOK, res.StatusCode)
	body := decodeBody(t, res)
	assert.EqualValues(t, 1, body["total"])
	complaints := body["complaints"].([]any)
	require.Len(t, complaints, 1)
	assert.Equal(t, "SF-0001", complaints[0].(map[string]any)["id"])

	res, err = app.Test(jsonRequest("GET", "/api/complaints?per_page=2", nil), 5000)
	require.NoError(t, err)
	body = decodeBody(t, res)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 2, body["per_page"])
	complaints = body["complaints"].([]any)
	require.Len(t, complaints, 2)
	// oldest first, so pages stay stable as new complaints arrive
	assert.Equal(t, "SF-0001", complaints[0].(map[string]any)["id"])
	assert.Equal(t, "SF-0002", complaints[1].(map[string]any)["id"])

	res, err = app.Test(jsonRequest("GET", "/api/complaints?per_page=2&page=2", nil), 5000)
	require.NoError(t, err)
	body = decodeBody(t, res)
	complaints = body["complaints"].([]any)
	require.Len(t, complaints, 1)
	assert.Equal(t, "SF-0003", complaints[0].(map[string]any)["id"])

	res, err = app.Test(jsonRequest("GET", "/api/complaints?department=water&status=pending", nil), 5000)
	require.NoError(t, err)
	body = decodeBody(t, res)
	assert.EqualValues(t, 3, body["total"])
}

func TestListComplaintsRejectsBadFilters(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(jsonRequest("GET", "/api/complaints?priority=massive", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusBadRequest, res.StatusCode)

	res, err = app.Test(jsonRequest("GET", "/api/complaints?status=unknown", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusBadRequest, res.StatusCode)
}

func TestAdminSecretAndSessionAuth(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(jsonRequest("GET", "/api/admin/stats", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusUnauthorized, res.StatusCode)

	req := jsonRequest("GET", "/api/admin/stats", nil)
	req.Header.Set("X-Admin-Secret", "wrong")
	res, err = app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusUnauthorized, res.StatusCode)

	req = jsonRequest("GET", "/api/admin/stats", nil)
	req.Header.Set("X-Admin-Secret", testAdminSecret)
	res, err = app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusOK, res.StatusCode)

	res, err = app.Test(jsonRequest("POST", "/api/admin/session", map[string]any{"secret": "wrong"}), 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusUnauthorized, res.StatusCode)

	res, err = app.Test(jsonRequest("POST", "/api/admin/session", map[string]any{"secret": testAdminSecret}), 5000)
	require.NoError(t, err)
	require.Equal(t, gohttp.StatusCreated, res.StatusCode)
	session := decodeBody(t, res)
	token, _ := session["token"].(string)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, session["expires_at"])

	req = jsonRequest("GET", "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err = app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusOK, res.StatusCode)

	req = jsonRequest("GET", "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	res, err = app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusUnauthorized, res.StatusCode)
}

func TestAdminStatusUpdateAndHistory(t *testing.T) {
	app := newTestApp(t)
	submitComplaint(t, app, "web:itest", "Sewage water has entered the ground floor of our building")

	req := jsonRequest("PATCH", "/api/admin/complaints/SF-0001/status", map[string]any{
		"new_status":     "in_progress",
		"note":           "Crew dispatched",
		"notify_citizen": false,
	})
	req.Header.Set("X-Admin-Secret", testAdminSecret)
	res, err := app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, gohttp.StatusOK, res.StatusCode)
	updated := decodeBody(t, res)
	assert.Equal(t, "in_progress", updated["status"])

	res, err = app.Test(jsonRequest("GET", "/api/complaints/SF-0001/history", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, gohttp.StatusOK, res.StatusCode)
	body := decodeBody(t, res)
	assert.Equal(t, "in_progress", body["current_status"])

	history := body["history"].([]any)
	require.Len(t, history, 2)
	first := history[0].(map[string]any)
	assert.Equal(t, "pending", first["old_status"])
	assert.Equal(t, "pending", first["new_status"])
	second := history[1].(map[string]any)
	assert.Equal(t, "pending", second["old_status"])
	assert.Equal(t, "in_progress", second["new_status"])
	assert.Equal(t, "admin", second["changed_by"])
	assert.Equal(t, "Crew dispatched", second["note"])
}

func TestAdminStatusUpdateRejectsInvalidTransition(t *testing.T) {
	app := newTestApp(t)
	submitComplaint(t, app, "web:itest", "Garbage has not been collected from our street for five days")

	req := jsonRequest("PATCH", "/api/admin/complaints/SF-0001/status", map[string]any{
		"new_status": "resolved",
	})
	req.Header.Set("X-Admin-Secret", testAdminSecret)
	res, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusConflict, res.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(decodeBody(t, res)))

	req = jsonRequest("PATCH", "/api/admin/complaints/SF-0001/status", map[string]any{
		"new_status": "finished",
	})
	req.Header.Set("X-Admin-Secret", testAdminSecret)
	res, err = app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusBadRequest, res.StatusCode)
}

func TestAdminStatsShape(t *testing.T) {
	app := newTestApp(t)
	submitComplaint(t, app, "web:a", "Water tanker has not arrived in our colony this whole week")
	submitComplaint(t, app, "web:b", "Dirty water is coming from the taps since yesterday evening")

	for _, status := range []string{"in_progress", "resolved"} {
		req := jsonRequest("PATCH", "/api/admin/complaints/SF-0002/status", map[string]any{
			"new_status": status,
		})
		req.Header.Set("X-Admin-Secret", testAdminSecret)
		res, err := app.Test(req, 5000)
		require.NoError(t, err)
		require.Equal(t, gohttp.StatusOK, res.StatusCode)
	}

	req := jsonRequest("GET", "/api/admin/stats", nil)
	req.Header.Set("X-Admin-Secret", testAdminSecret)
	res, err := app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, gohttp.StatusOK, res.StatusCode)
	stats := decodeBody(t, res)

	assert.EqualValues(t, 2, stats["total_complaints"])
	assert.EqualValues(t, 1, stats["resolved_count"])
	byStatus := stats["by_status"].(map[string]any)
	assert.EqualValues(t, 1, byStatus["pending"])
	assert.EqualValues(t, 1, byStatus["resolved"])
	byDepartment := stats["by_department"].(map[string]any)
	assert.EqualValues(t, 2, byDepartment["Delhi Jal Board"])
	assert.NotNil(t, stats["avg_resolution_hours"])
}

func TestAdminDepartmentsDump(t *testing.T) {
	app := newTestApp(t)

	req := jsonRequest("GET", "/api/admin/departments", nil)
	req.Header.Set("X-Admin-Secret", testAdminSecret)
	res, err := app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, gohttp.StatusOK, res.StatusCode)
	body := decodeBody(t, res)

	departments := body["departments"].([]any)
	require.NotEmpty(t, departments)
	first := departments[0].(map[string]any)
	assert.NotEmpty(t, first["id"])
	assert.NotEmpty(t, first["name"])
	assert.NotEmpty(t, first["keywords"])
	assert.Greater(t, first["sla_hours"], float64(0))
}

func TestAdminNotifyWithoutCitizenChannel(t *testing.T) {
	app := newTestApp(t)
	submitComplaint(t, app, "web:itest", "The park swings are broken and dangerous for children here")

	req := jsonRequest("POST", "/api/admin/notify/SF-0001", map[string]any{"message": "Inspection scheduled."})
	req.Header.Set("X-Admin-Secret", testAdminSecret)
	res, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(decodeBody(t, res)))
}

func TestServiceInfoAndHealth(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(jsonRequest("GET", "/", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, gohttp.StatusOK, res.StatusCode)
	info := decodeBody(t, res)
	assert.Equal(t, "grievance-service", info["name"])
	assert.Equal(t, "operational", info["status"])

	res, err = app.Test(jsonRequest("GET", "/health", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, gohttp.StatusOK, res.StatusCode)
	assert.Equal(t, "alive", decodeBody(t, res)["status"])

	res, err = app.Test(jsonRequest("GET", "/health/ready", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, gohttp.StatusOK, res.StatusCode)
	ready := decodeBody(t, res)
	assert.Equal(t, "ready", ready["status"])
	deps := ready["dependencies"].(map[string]any)
	assert.Equal(t, "ok", deps["sqlite"])
	assert.Equal(t, "disabled", deps["redis"])
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(jsonRequest("GET", "/api/nothing-here", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusNotFound, res.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(decodeBody(t, res)))

	res, err = app.Test(jsonRequest("DELETE", "/api/complaints", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusMethodNotAllowed, res.StatusCode)
}

func TestAdminMetricsCounters(t *testing.T) {
	app := newTestApp(t)
	submitComplaint(t, app, "web:itest", "No water supply in our lane since early this morning")

	req := jsonRequest("GET", "/api/admin/metrics", nil)
	req.Header.Set("X-Admin-Secret", testAdminSecret)
	res, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusOK, res.StatusCode)
	decodeBody(t, res)
}
