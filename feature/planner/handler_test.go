package planner_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"planner/core/database"
	"planner/core/recurrence"
	"planner/core/series"
	"planner/feature/planner"
	"planner/feature/planner/models"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	feature := planner.NewFeature(db, recurrence.Config{MaxOccurrences: 52}, zap.NewNop())
	require.True(t, feature.IsEnabled())
	require.NoError(t, feature.Store().Migrate(t.Context()))

	app := fiber.New(fiber.Config{JSONEncoder: json.Marshal, JSONDecoder: json.Unmarshal})
	require.NoError(t, feature.Load(app))
	return app
}

func call(t *testing.T, app *fiber.App, method, target string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}
	return resp.StatusCode
}

func createWeekly(t *testing.T, app *fiber.App, count int) []series.Instance {
	t.Helper()
	var created models.InstancesResponse
	status := call(t, app, http.MethodPost, "/series", map[string]any{
		"rule":    map[string]any{"freq": "WEEKLY", "byDay": []string{"MO"}, "count": count},
		"anchor":  "2025-01-06",
		"ownerId": "u1",
		"title":   "Standup",
	}, &created)
	require.Equal(t, fiber.StatusCreated, status)
	require.Len(t, created.Instances, count)
	return created.Instances
}

func TestHandler_CreateAndList(t *testing.T) {
	app := newTestApp(t)
	created := createWeekly(t, app, 3)
	seriesID := *created[0].SeriesMasterID

	var standalone models.InstancesResponse
	status := call(t, app, http.MethodPost, "/series", map[string]any{
		"anchor": "2025-01-08", "ownerId": "u1", "title": "Dentist",
	}, &standalone)
	require.Equal(t, fiber.StatusCreated, status)
	require.Len(t, standalone.Instances, 1)
	assert.Nil(t, standalone.Instances[0].SeriesMasterID)

	var list models.InstancesResponse
	assert.Equal(t, fiber.StatusOK, call(t, app, http.MethodGet, "/series/"+seriesID+"/instances", nil, &list))
	assert.Equal(t, 3, list.Count)

	assert.Equal(t, fiber.StatusOK, call(t, app, http.MethodGet, "/instances?owner=u1", nil, &list))
	require.Equal(t, 4, list.Count)
	assert.Equal(t, "Dentist", list.Instances[1].Title)

	var master series.Series
	assert.Equal(t, fiber.StatusOK, call(t, app, http.MethodGet, "/series/"+seriesID, nil, &master))
	assert.Equal(t, recurrence.TagWeekly, master.Rule.Freq.Tag())

	var inst series.Instance
	assert.Equal(t, fiber.StatusOK, call(t, app, http.MethodGet, "/instances/"+created[1].ID, nil, &inst))
	assert.Equal(t, created[1].ID, inst.ID)
}

func TestHandler_CreateRejects(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		body any
		code string
	}{
		{name: "Missing title", body: map[string]any{"anchor": "2025-01-06"}, code: planner.CodeValidation},
		{name: "Bad anchor", body: map[string]any{"anchor": "06/01/2025", "title": "x"}, code: planner.CodeValidation},
		{name: "Bad start time", body: map[string]any{"anchor": "2025-01-06", "title": "x", "startTime": "9am"}, code: planner.CodeValidation},
		{name: "Bad weekday", body: map[string]any{"anchor": "2025-01-06", "title": "x", "rule": map[string]any{"freq": "WEEKLY", "byDay": []int{9}}}},
		{name: "Zero interval", body: map[string]any{"anchor": "2025-01-06", "title": "x", "rule": map[string]any{"freq": "DAILY", "interval": -1}}},
		{name: "Huge interval", body: map[string]any{"anchor": "2025-01-06", "title": "x", "rule": map[string]any{"freq": "DAILY", "interval": 1 << 40}}},
		{name: "Huge count", body: map[string]any{"anchor": "2025-01-06", "title": "x", "rule": map[string]any{"freq": "DAILY", "count": 50000000}}, code: planner.CodeInvalidRule},
		{name: "Malformed JSON", body: "{", code: planner.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp models.ErrorResponse
			status := call(t, app, http.MethodPost, "/series", tt.body, &resp)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.NotEmpty(t, resp.Error)
			if tt.code != "" {
				assert.Equal(t, tt.code, resp.Code)
			}
		})
	}
}

func TestHandler_UpdateScopes(t *testing.T) {
	app := newTestApp(t)
	created := createWeekly(t, app, 5)

	var resp models.ErrorResponse
	status := call(t, app, http.MethodPatch, "/instances/"+created[2].ID+"?scope=bogus", map[string]any{"title": "X"}, &resp)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, planner.CodeInvalidScope, resp.Code)

	status = call(t, app, http.MethodPatch, "/instances/"+created[2].ID+"?scope=this", map[string]any{"rule": map[string]any{"freq": "DAILY"}}, &resp)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, planner.CodeScopeNotAllowed, resp.Code)

	status = call(t, app, http.MethodPatch, "/instances/missing?scope=this", map[string]any{"title": "X"}, &resp)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, planner.CodeNotFound, resp.Code)

	var updated models.InstancesResponse
	status = call(t, app, http.MethodPatch, "/instances/"+created[2].ID+"?scope=following", map[string]any{"title": "X"}, &updated)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 3, updated.Count)

	var list models.InstancesResponse
	call(t, app, http.MethodGet, "/series/"+*created[0].SeriesMasterID+"/instances", nil, &list)
	require.Len(t, list.Instances, 5)
	assert.Equal(t, "Standup", list.Instances[1].Title)
	assert.Equal(t, "X", list.Instances[2].Title)
	assert.Equal(t, "X", list.Instances[4].Title)
}

func TestHandler_StandaloneRejectsSeriesScope(t *testing.T) {
	app := newTestApp(t)

	var standalone models.InstancesResponse
	call(t, app, http.MethodPost, "/series", map[string]any{"anchor": "2025-01-08", "title": "Dentist"}, &standalone)
	require.Len(t, standalone.Instances, 1)
	id := standalone.Instances[0].ID

	var resp models.ErrorResponse
	status := call(t, app, http.MethodDelete, "/instances/"+id+"?scope=all", nil, &resp)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, planner.CodeNotRecurring, resp.Code)

	var deleted models.DeleteResponse
	status = call(t, app, http.MethodDelete, "/instances/"+id+"?scope=this", nil, &deleted)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{id}, deleted.DeletedIDs)
}

func TestHandler_DeleteDryRun(t *testing.T) {
	app := newTestApp(t)
	created := createWeekly(t, app, 4)

	var plan series.Plan
	status := call(t, app, http.MethodDelete, "/instances/"+created[1].ID+"?scope=following&dry_run=true", nil, &plan)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 3, plan.Summary.Deletes)
	assert.Equal(t, 1, plan.Summary.SeriesSaves)

	var list models.InstancesResponse
	call(t, app, http.MethodGet, "/series/"+*created[0].SeriesMasterID+"/instances", nil, &list)
	assert.Equal(t, 4, list.Count)

	var deleted models.DeleteResponse
	status = call(t, app, http.MethodDelete, "/instances/"+created[1].ID+"?scope=following", nil, &deleted)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 3, deleted.Count)

	call(t, app, http.MethodGet, "/series/"+*created[0].SeriesMasterID+"/instances", nil, &list)
	assert.Equal(t, 1, list.Count)
}

func TestHandler_Preview(t *testing.T) {
	app := newTestApp(t)

	var out models.PreviewResponse
	status := call(t, app, http.MethodPost, "/preview", map[string]any{
		"rule":   map[string]any{"freq": "MONTHLY", "byMonthDay": 31, "count": 4},
		"anchor": "2025-01-31",
	}, &out)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30"}, out.Dates)

	var resp models.ErrorResponse
	status = call(t, app, http.MethodPost, "/preview", map[string]any{
		"rule":   map[string]any{"freq": "HOURLY"},
		"anchor": "2025-01-31",
	}, &resp)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status = call(t, app, http.MethodPost, "/preview", map[string]any{
		"rule":   map[string]any{"freq": "DAILY", "count": planner.MaxRequestCount + 1},
		"anchor": "2025-01-31",
	}, &resp)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, planner.CodeInvalidRule, resp.Code)
}
