package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fleet-backend/database"
	"fleet-backend/models"
	"fleet-backend/services"
	"fleet-backend/utils"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRules struct {
	rules    map[uuid.UUID]*models.AutomaticActivity
	vehicles map[uuid.UUID]uuid.UUID // vehicle -> organization
	drivers  map[uuid.UUID]uuid.UUID // driver -> organization
}

func newFakeRules() *fakeRules {
	return &fakeRules{
		rules:    map[uuid.UUID]*models.AutomaticActivity{},
		vehicles: map[uuid.UUID]uuid.UUID{},
		drivers:  map[uuid.UUID]uuid.UUID{},
	}
}

func (f *fakeRules) GetVehicle(ctx context.Context, orgID, id uuid.UUID) (*models.Vehicle, error) {
	if owner, ok := f.vehicles[id]; !ok || owner != orgID {
		return nil, database.ErrNotFound
	}
	return &models.Vehicle{ID: id, OrganizationID: orgID}, nil
}

func (f *fakeRules) GetDriver(ctx context.Context, orgID, id uuid.UUID) (*models.Driver, error) {
	if owner, ok := f.drivers[id]; !ok || owner != orgID {
		return nil, database.ErrNotFound
	}
	return &models.Driver{ID: id, OrganizationID: orgID}, nil
}

func (f *fakeRules) ListAutomaticActivities(ctx context.Context, orgID *uuid.UUID) ([]models.AutomaticActivity, error) {
	out := []models.AutomaticActivity{}
	for _, r := range f.rules {
		if orgID == nil || r.OrganizationID == *orgID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRules) GetAutomaticActivity(ctx context.Context, orgID, id uuid.UUID) (*models.AutomaticActivity, error) {
	r, ok := f.rules[id]
	if !ok || r.OrganizationID != orgID {
		return nil, database.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRules) CreateAutomaticActivity(ctx context.Context, rule *models.AutomaticActivity) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	cp := *rule
	f.rules[rule.ID] = &cp
	return nil
}

func (f *fakeRules) SaveAutomaticActivity(ctx context.Context, rule *models.AutomaticActivity) error {
	cp := *rule
	f.rules[rule.ID] = &cp
	return nil
}

func (f *fakeRules) DeleteAutomaticActivity(ctx context.Context, orgID, id uuid.UUID) error {
	r, ok := f.rules[id]
	if !ok || r.OrganizationID != orgID {
		return database.ErrNotFound
	}
	delete(f.rules, id)
	return nil
}

type fakeActivities struct {
	activities []models.Activity
	deleteErr  error
	lastFilter database.ActivityFilter
	lastLimit  int
	lastOffset int
}

func (f *fakeActivities) ListActivities(ctx context.Context, orgID uuid.UUID, filter database.ActivityFilter, offset, limit int) ([]models.Activity, error) {
	f.lastFilter, f.lastOffset, f.lastLimit = filter, offset, limit
	out := []models.Activity{}
	for _, a := range f.activities {
		if a.OrganizationID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeActivities) UpdateActivityStatus(ctx context.Context, orgID, id uuid.UUID, status models.ActivityStatus) (*models.Activity, error) {
	for i := range f.activities {
		if f.activities[i].ID == id && f.activities[i].OrganizationID == orgID {
			f.activities[i].Status = status
			return &f.activities[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeActivities) DeleteActivity(ctx context.Context, orgID, id uuid.UUID) error {
	return f.deleteErr
}

type fakeRunner struct {
	summary *services.RunSummary
	err     error
	opts    services.RunOptions
	calls   int
	ctxErr  error
}

func (f *fakeRunner) Run(ctx context.Context, opts services.RunOptions) (*services.RunSummary, error) {
	f.calls++
	f.opts = opts
	f.ctxErr = ctx.Err()
	return f.summary, f.err
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// serve runs one request through a router where every route is registered
// with session injected, so handlers see an authenticated caller.
func serve(t *testing.T, h *Handler, session *utils.Session, method, path string, body interface{}) (*httptest.ResponseRecorder, response) {
	t.Helper()

	r := gin.New()
	withSession := func(c *gin.Context) {
		if session != nil {
			utils.SetSession(c, *session)
		}
		c.Next()
	}
	r.Use(withSession)
	r.POST("/functions/generate-automatic-activities", h.GenerateAutomaticActivities)
	r.OPTIONS("/functions/generate-automatic-activities", h.GeneratePreflight)
	r.GET("/api/automatic-activities", h.ListAutomaticActivities)
	r.POST("/api/automatic-activities", h.CreateAutomaticActivity)
	r.GET("/api/automatic-activities/:id", h.GetAutomaticActivity)
	r.PUT("/api/automatic-activities/:id", h.UpdateAutomaticActivity)
	r.DELETE("/api/automatic-activities/:id", h.DeleteAutomaticActivity)
	r.GET("/api/activities", h.ListActivities)
	r.PATCH("/api/activities/:id/status", h.UpdateActivityStatus)
	r.DELETE("/api/activities/:id", h.DeleteActivity)
	r.POST("/api/expenses", h.CreateExpense)
	r.GET("/api/expenses", h.ListExpenses)
	r.POST("/api/revenues", h.CreateRevenue)
	r.GET("/api/revenues", h.ListRevenues)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var resp response
	if rr.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}
	return rr, resp
}

func newSession() *utils.Session {
	return &utils.Session{UserID: uuid.New(), OrganizationID: uuid.New()}
}

// ==========================================
// TRIGGER
// ==========================================

func TestGenerateAutomaticActivitiesSuccess(t *testing.T) {
	runner := &fakeRunner{summary: &services.RunSummary{Date: "2026-10-19", RulesFired: 1, ActivitiesCreated: 1, Outcomes: []services.RuleOutcome{}}}
	h := New(newFakeRules(), &fakeActivities{}, newFakeLedger(), runner)

	rr, resp := serve(t, h, nil, http.MethodPost, "/functions/generate-automatic-activities", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, resp.Success)
	assert.Equal(t, "Automatic activities generated successfully", resp.Message)

	var summary services.RunSummary
	require.NoError(t, json.Unmarshal(resp.Data, &summary))
	assert.Equal(t, 1, summary.ActivitiesCreated)
	assert.Nil(t, runner.opts.OrganizationID)
	assert.False(t, runner.opts.Force)
}

func TestGenerateAutomaticActivitiesPassesOptions(t *testing.T) {
	runner := &fakeRunner{summary: &services.RunSummary{Skipped: true}}
	h := New(newFakeRules(), &fakeActivities{}, newFakeLedger(), runner)
	org := uuid.New()

	rr, resp := serve(t, h, nil, http.MethodPost, "/functions/generate-automatic-activities?organization_id="+org.String()+"&force=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Automatic activities were already generated today", resp.Message)
	require.NotNil(t, runner.opts.OrganizationID)
	assert.Equal(t, org, *runner.opts.OrganizationID)
	assert.True(t, runner.opts.Force)
}

func TestGenerateAutomaticActivitiesRejectsBadParams(t *testing.T) {
	runner := &fakeRunner{}
	h := New(newFakeRules(), &fakeActivities{}, newFakeLedger(), runner)

	rr, _ := serve(t, h, nil, http.MethodPost, "/functions/generate-automatic-activities?organization_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr, _ = serve(t, h, nil, http.MethodPost, "/functions/generate-automatic-activities?force=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, runner.calls)
}

func TestGenerateAutomaticActivitiesFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("load automatic activities: connection refused")}
	h := New(newFakeRules(), &fakeActivities{}, newFakeLedger(), runner)

	rr, resp := serve(t, h, nil, http.MethodPost, "/functions/generate-automatic-activities", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "connection refused")
}

func TestGenerateAutomaticActivitiesOutlivesCaller(t *testing.T) {
	runner := &fakeRunner{summary: &services.RunSummary{Date: "2026-10-19"}}
	h := New(newFakeRules(), &fakeActivities{}, newFakeLedger(), runner)

	r := gin.New()
	r.POST("/functions/generate-automatic-activities", h.GenerateAutomaticActivities)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/functions/generate-automatic-activities", nil).WithContext(ctx)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, 1, runner.calls)
	assert.NoError(t, runner.ctxErr)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGeneratePreflight(t *testing.T) {
	h := New(newFakeRules(), &fakeActivities{}, newFakeLedger(), &fakeRunner{})

	rr, _ := serve(t, h, nil, http.MethodOptions, "/functions/generate-automatic-activities", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

// ==========================================
// AUTOMATIC ACTIVITIES
// ==========================================

func TestCreateAutomaticActivity(t *testing.T) {
	rules := newFakeRules()
	h := New(rules, &fakeActivities{}, newFakeLedger(), &fakeRunner{})
	session := newSession()
	vehicle := uuid.New()
	rules.vehicles[vehicle] = session.OrganizationID

	body := map[string]interface{}{
		"cadence":       "weekly",
		"days_of_week":  []string{"monday", "Thursday"},
		"apply_to_type": "specific_vehicle",
		"vehicle_id":    vehicle,
		"activity_type": "Lavado de vehiculo",
		"amount":        25.456,
	}
	rr, resp := serve(t, h, session, http.MethodPost, "/api/automatic-activities", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.True(t, resp.Success)

	var rule models.AutomaticActivity
	require.NoError(t, json.Unmarshal(resp.Data, &rule))
	assert.Equal(t, session.OrganizationID, rule.OrganizationID)
	assert.Equal(t, []string{"Monday", "Thursday"}, []string(rule.DaysOfWeek))
	assert.Equal(t, models.StatusPending, rule.Status)
	assert.Equal(t, 25.46, rule.Amount)
	assert.Len(t, rules.rules, 1)
}

func TestCreateAutomaticActivityValidation(t *testing.T) {
	h := New(newFakeRules(), &fakeActivities{}, newFakeLedger(), &fakeRunner{})
	session := newSession()

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing cadence", map[string]interface{}{"apply_to_type": "all_vehicles", "activity_type": "x"}},
		{"weekly without days", map[string]interface{}{"cadence": "weekly", "apply_to_type": "all_vehicles", "activity_type": "x"}},
		{"weekly with invalid day", map[string]interface{}{"cadence": "weekly", "days_of_week": []string{"Monday", "Funday"}, "apply_to_type": "all_vehicles", "activity_type": "x"}},
		{"monthly day 40", map[string]interface{}{"cadence": "monthly", "day_of_month": 40, "apply_to_type": "all_vehicles", "activity_type": "x"}},
		{"vehicle scope without id", map[string]interface{}{"cadence": "daily", "apply_to_type": "specific_vehicle", "activity_type": "x"}},
		{"bad start date", map[string]interface{}{"cadence": "daily", "apply_to_type": "all_drivers", "activity_type": "x", "start_date": "tomorrow"}},
		{"bad status", map[string]interface{}{"cadence": "daily", "apply_to_type": "all_drivers", "activity_type": "x", "status": "Done"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, resp := serve(t, h, session, http.MethodPost, "/api/automatic-activities", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestCreateAutomaticActivityRejectsForeignTarget(t *testing.T) {
	rules := newFakeRules()
	h := New(rules, &fakeActivities{}, newFakeLedger(), &fakeRunner{})
	session := newSession()
	foreignVehicle, foreignDriver := uuid.New(), uuid.New()
	rules.vehicles[foreignVehicle] = uuid.New()
	rules.drivers[foreignDriver] = uuid.New()

	rr, resp := serve(t, h, session, http.MethodPost, "/api/automatic-activities", map[string]interface{}{
		"cadence": "daily", "apply_to_type": "specific_vehicle", "vehicle_id": foreignVehicle, "activity_type": "x",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Vehicle not found", resp.Message)

	rr, resp = serve(t, h, session, http.MethodPost, "/api/automatic-activities", map[string]interface{}{
		"cadence": "daily", "apply_to_type": "specific_driver", "driver_id": foreignDriver, "activity_type": "x",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Driver not found", resp.Message)
	assert.Empty(t, rules.rules)

	own := uuid.New()
	rules.drivers[own] = session.OrganizationID
	rr, _ = serve(t, h, session, http.MethodPost, "/api/automatic-activities", map[string]interface{}{
		"cadence": "daily", "apply_to_type": "specific_driver", "driver_id": own, "activity_type": "x",
	})
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestAutomaticActivitiesAreTenantScoped(t *testing.T) {
	rules := newFakeRules()
	h := New(rules, &fakeActivities{}, newFakeLedger(), &fakeRunner{})
	owner, stranger := newSession(), newSession()

	rule := &models.AutomaticActivity{ID: uuid.New(), OrganizationID: owner.OrganizationID, Cadence: models.CadenceDaily, ApplyToType: models.ApplyToAllVehicles, ActivityType: "x"}
	rules.rules[rule.ID] = rule
	path := "/api/automatic-activities/" + rule.ID.String()

	rr, _ := serve(t, h, stranger, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr, _ = serve(t, h, stranger, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, resp := serve(t, h, stranger, http.MethodGet, "/api/automatic-activities", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", string(resp.Data))

	rr, _ = serve(t, h, owner, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr, _ = serve(t, h, owner, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rules.rules)
}

func TestUpdateAutomaticActivity(t *testing.T) {
	rules := newFakeRules()
	h := New(rules, &fakeActivities{}, newFakeLedger(), &fakeRunner{})
	session := newSession()
	vehicle := uuid.New()

	rule := &models.AutomaticActivity{ID: uuid.New(), OrganizationID: session.OrganizationID, Cadence: models.CadenceDaily, ActivityType: "x"}
	rule.SetScope(models.SpecificVehicle{VehicleID: vehicle})
	rules.rules[rule.ID] = rule

	body := map[string]interface{}{
		"cadence":        "monthly",
		"day_of_month":   31,
		"apply_to_type":  "vehicle_status",
		"vehicle_status": "Active",
		"activity_type":  "Seguro",
		"status":         "Past Due",
	}
	rr, _ := serve(t, h, session, http.MethodPut, "/api/automatic-activities/"+rule.ID.String(), body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	saved := rules.rules[rule.ID]
	assert.Equal(t, models.CadenceMonthly, saved.Cadence)
	assert.Equal(t, 31, *saved.DayOfMonth)
	assert.Equal(t, models.ApplyToVehicleStatus, saved.ApplyToType)
	assert.Nil(t, saved.VehicleID)
	assert.Equal(t, "Active", *saved.VehicleStatus)
	assert.Equal(t, models.StatusPastDue, saved.Status)
	assert.Equal(t, session.OrganizationID, saved.OrganizationID)
}

func TestAutomaticActivityRequiresSession(t *testing.T) {
	h := New(newFakeRules(), &fakeActivities{}, newFakeLedger(), &fakeRunner{})
	rr, _ := serve(t, h, nil, http.MethodGet, "/api/automatic-activities", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// ==========================================
// ACTIVITIES
// ==========================================

func TestListActivitiesParsesFilter(t *testing.T) {
	session := newSession()
	vehicle := uuid.New()
	activities := &fakeActivities{activities: []models.Activity{
		{ID: uuid.New(), OrganizationID: session.OrganizationID, ActivityType: "Seguro"},
		{ID: uuid.New(), OrganizationID: uuid.New(), ActivityType: "Other"},
	}}
	h := New(newFakeRules(), activities, newFakeLedger(), &fakeRunner{})

	rr, resp := serve(t, h, session, http.MethodGet,
		"/api/activities?from=2026-10-01&to=2026-10-31&vehicle_id="+vehicle.String()+"&status=Past%20Due&page=3&limit=10", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got []models.Activity
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Len(t, got, 1)

	f := activities.lastFilter
	require.NotNil(t, f.From)
	require.NotNil(t, f.To)
	assert.Equal(t, "2026-10-01", f.From.Format(models.DateLayout))
	assert.Equal(t, "2026-10-31", f.To.Format(models.DateLayout))
	assert.Equal(t, vehicle, *f.VehicleID)
	assert.Nil(t, f.DriverID)
	assert.Equal(t, models.StatusPastDue, f.Status)
	assert.Equal(t, 20, activities.lastOffset)
	assert.Equal(t, 10, activities.lastLimit)
}

func TestListActivitiesRejectsBadFilter(t *testing.T) {
	h := New(newFakeRules(), &fakeActivities{}, newFakeLedger(), &fakeRunner{})
	session := newSession()

	for _, q := range []string{"from=yesterday", "vehicle_id=1", "driver_id=x", "status=Done"} {
		rr, _ := serve(t, h, session, http.MethodGet, "/api/activities?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestUpdateActivityStatus(t *testing.T) {
	session := newSession()
	id := uuid.New()
	activities := &fakeActivities{activities: []models.Activity{{ID: id, OrganizationID: session.OrganizationID, Status: models.StatusPending}}}
	h := New(newFakeRules(), activities, newFakeLedger(), &fakeRunner{})

	rr, _ := serve(t, h, session, http.MethodPatch, "/api/activities/"+id.String()+"/status", map[string]string{"status": "Completed"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, models.StatusCompleted, activities.activities[0].Status)

	rr, _ = serve(t, h, session, http.MethodPatch, "/api/activities/"+id.String()+"/status", map[string]string{"status": "Finished"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = serve(t, h, session, http.MethodPatch, "/api/activities/"+uuid.NewString()+"/status", map[string]string{"status": "Canceled"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteActivity(t *testing.T) {
	session := newSession()
	path := "/api/activities/" + uuid.NewString()

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"deleted", nil, http.StatusOK},
		{"referenced", database.ErrActivityReferenced, http.StatusConflict},
		{"missing", database.ErrNotFound, http.StatusNotFound},
		{"store failure", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(newFakeRules(), &fakeActivities{deleteErr: tt.err}, newFakeLedger(), &fakeRunner{})
			rr, resp := serve(t, h, session, http.MethodDelete, path, nil)
			assert.Equal(t, tt.code, rr.Code)
			if tt.code == http.StatusConflict {
				assert.Contains(t, resp.Message, "revenue or expense")
			}
		})
	}
}
