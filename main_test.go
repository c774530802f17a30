package main

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/httptest"
	"github.com/pashagolub/pgxmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetlens/panorama/api/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8080",
		AdminUser:      "admin",
		AdminPassword:  "panorama",
		ImportMaxBytes: 1 << 20,
	}
}

func newTestApi(t *testing.T) (*iris.Application, pgxmock.PgxPoolIface) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return panoramaApi(testConfig(), mock), mock
}

func TestHealth(t *testing.T) {

	app, _ := newTestApi(t)
	test := httptest.New(t, app)

	test.GET("/").Expect().Status(404)
	test.GET("/healthz").Expect().Status(200).
		JSON().Object().ValueEqual("status", "ok")
	test.GET("/health").Expect().Status(200).
		JSON().Object().ValueEqual("status", "ok")
}

func TestLocationListEnvelope(t *testing.T) {

	app, mock := newTestApi(t)
	test := httptest.New(t, app)

	mock.ExpectQuery("FROM locations ORDER BY id").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "longitude", "latitude", "rating",
			"category", "description", "address", "panorama_id", "created_at", "updated_at"}))

	body := test.GET("/api/panorama/locations").Expect().
		Status(200).JSON().Object()
	body.ValueEqual("code", "200")
	body.Value("data").Array().Empty()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRequired(t *testing.T) {

	app, _ := newTestApi(t)
	test := httptest.New(t, app)

	test.POST("/api/panorama/locations").Expect().
		Status(401).JSON().Object().ValueEqual("code", "401")

	//any non-empty bearer token passes; the empty body then fails validation
	//inside a normal 200 transport
	test.POST("/api/panorama/locations").
		WithHeader("Authorization", "Bearer test-token").
		Expect().Status(200).
		JSON().Object().ValueEqual("code", "400")
}

//Clients may also carry the token as a query parameter instead of an
//Authorization header.
func TestTokenQueryParam(t *testing.T) {

	app, _ := newTestApi(t)
	test := httptest.New(t, app)

	test.POST("/api/panorama/locations").
		WithQuery("token", "test-token").
		Expect().Status(200).
		JSON().Object().ValueEqual("code", "400")

	test.POST("/api/panorama/locations").
		WithQuery("token", "  ").
		Expect().Status(401).
		JSON().Object().ValueEqual("code", "401")
}

func TestReviewPanorama(t *testing.T) {

	app, mock := newTestApi(t)
	test := httptest.New(t, app)

	mock.ExpectExec("UPDATE panoramas SET status").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	body := test.POST("/api/manager/data/7/review").
		WithHeader("Authorization", "Bearer test-token").
		WithJSON(map[string]string{"action": "approve"}).
		Expect().Status(200).JSON().Object()
	body.ValueEqual("code", "200")
	body.Value("data").Object().ValueEqual("status", "published")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewValidation(t *testing.T) {

	app, mock := newTestApi(t)
	test := httptest.New(t, app)

	//an unknown action is rejected before any database work
	test.POST("/api/manager/data/7/review").
		WithHeader("Authorization", "Bearer test-token").
		WithJSON(map[string]string{"action": "maybe"}).
		Expect().Status(200).
		JSON().Object().ValueEqual("code", "400")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewMissingPanorama(t *testing.T) {

	app, mock := newTestApi(t)
	test := httptest.New(t, app)

	mock.ExpectExec("UPDATE panoramas SET status").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	test.POST("/api/manager/data/99/review").
		WithHeader("Authorization", "Bearer test-token").
		WithJSON(map[string]string{"action": "reject"}).
		Expect().Status(200).
		JSON().Object().ValueEqual("code", "404")
}

func TestManagerDeleteRequiresBasicAuth(t *testing.T) {

	app, _ := newTestApi(t)
	test := httptest.New(t, app)

	test.DELETE("/api/manager/data/7").Expect().Status(401)
}

func TestGovernmentLoginRejected(t *testing.T) {

	app, mock := newTestApi(t)
	test := httptest.New(t, app)

	mock.ExpectQuery("FROM government_users WHERE username").
		WillReturnError(pgx.ErrNoRows)

	test.POST("/api/government/login").
		WithJSON(map[string]string{"username": "ghost", "password": "wrong"}).
		Expect().Status(200).
		JSON().Object().ValueEqual("code", "400")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStatisticsEndpoint(t *testing.T) {

	app, mock := newTestApi(t)
	test := httptest.New(t, app)

	mock.ExpectQuery("SELECT status, count").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 1).
			AddRow("completed", 3))
	mock.ExpectQuery("SELECT task_type, count").
		WillReturnRows(pgxmock.NewRows([]string{"task_type", "count"}).AddRow("sanitation", 4))
	mock.ExpectQuery("SELECT priority, count").
		WillReturnRows(pgxmock.NewRows([]string{"priority", "count"}).AddRow("medium", 4))

	body := test.GET("/api/government/tasks/statistics").
		WithQuery("period", "week").
		WithHeader("Authorization", "Bearer test-token").
		Expect().Status(200).JSON().Object()
	body.ValueEqual("code", "200")

	data := body.Value("data").Object()
	data.ValueEqual("period", "week")
	data.ValueEqual("total", 4)
	data.ValueEqual("completed", 3)
	data.ValueEqual("completion_rate", 75.0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskMapRejectsBadBbox(t *testing.T) {

	app, _ := newTestApi(t)
	test := httptest.New(t, app)

	test.GET("/api/government/tasks/map").
		WithQuery("bbox", "114.5,23.4,114.3").
		WithHeader("Authorization", "Bearer test-token").
		Expect().Status(200).
		JSON().Object().ValueEqual("code", "400")
}

func TestImageNotFoundIsTrueStatus(t *testing.T) {

	app, mock := newTestApi(t)
	test := httptest.New(t, app)

	mock.ExpectQuery("FROM image_storage WHERE id").
		WillReturnError(pgx.ErrNoRows)

	//raw image fetches use real HTTP statuses, not the envelope
	test.GET("/api/images/404").Expect().Status(404)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShopListPaging(t *testing.T) {

	app, mock := newTestApi(t)
	test := httptest.New(t, app)

	now := time.Now()
	mock.ExpectQuery("SELECT count").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM shops ORDER BY id").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "address", "province", "city", "district",
			"size", "role", "active", "audit_status", "last_login_time", "created_at", "updated_at"}).
			AddRow(int64(1), "corner store", "", "", "", "", "small", "admin", true, "approved", nil, now, now))

	body := test.GET("/api/shop/list").
		WithHeader("Authorization", "Bearer test-token").
		Expect().Status(200).JSON().Object()
	body.ValueEqual("code", "200")

	data := body.Value("data").Object()
	data.ValueEqual("total", 1)
	data.ValueEqual("page", 1)
	data.ValueEqual("pageSize", 10)
	data.Value("list").Array().Length().Equal(1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
