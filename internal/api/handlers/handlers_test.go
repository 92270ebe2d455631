package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/cardboard/internal/api/dto"
	"github.com/hugh/cardboard/internal/api/handlers"
	"github.com/hugh/cardboard/internal/api/middleware"
	"github.com/hugh/cardboard/internal/auth"
	"github.com/hugh/cardboard/internal/cards"
	"github.com/hugh/cardboard/internal/database/models"
	"github.com/hugh/cardboard/internal/testutil"
	"github.com/hugh/cardboard/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPages = handlers.PageDefaults{DefaultSize: 50, MaxSize: 500}

func setupCardTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService))

	svc := cards.NewService(tc.DB, util.NopLogger(), cards.WithPublisher(cards.InlinePublisher(tc.DB)))
	handler := handlers.NewCardHandler(svc, testPages, util.NopLogger())
	r.Route("/cards", func(r chi.Router) {
		r.Post("/create", handler.Create)
		r.Get("/get/{id}", handler.Get)
		r.Get("/list", handler.List)
		r.Put("/update/{id}", handler.Update)
		r.Delete("/delete/{id}", handler.Delete)
		r.Get("/history/{id}", handler.History)
	})

	return r, tc
}

func setupUserTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	svc := auth.NewService(tc.DB, tc.JWTService, auth.WithLogger(util.NopLogger()))
	handler := handlers.NewUserHandler(svc, testPages, util.NopLogger())

	r := chi.NewRouter()
	r.Post("/users/register", handler.Register)
	r.Post("/users/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Get("/users/me", handler.Me)
		r.With(middleware.RequireRole(models.RoleAdmin)).Get("/users/list", handler.List)
	})

	return r, tc
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCardHandler_Create(t *testing.T) {
	router, tc := setupCardTestRouter(t)
	defer tc.Cleanup()

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
	}{
		{
			name:       "name only",
			body:       map[string]interface{}{"name": "Buy milk"},
			wantStatus: http.StatusOK,
		},
		{
			name: "all fields",
			body: map[string]interface{}{
				"name":        "Release",
				"description": "cut v1",
				"color":       "#FFF",
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "color without hash",
			body:       map[string]interface{}{"name": "Bad", "color": "000000"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing name",
			body:       map[string]interface{}{"color": "#000000"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest(t, http.MethodPost, "/cards/create", tt.body, tc.MemberToken)
			rr := serve(router, req)
			testutil.AssertStatus(t, rr, tt.wantStatus)

			if tt.wantStatus == http.StatusOK {
				var resp dto.CardResponse
				testutil.ParseJSONResponse(t, rr, &resp)
				assert.NotEmpty(t, resp.ID)
				assert.Equal(t, "ToDo", resp.Status)
				assert.Equal(t, tc.Member.ID.String(), resp.UserID)
				require.NotNil(t, resp.User)
				assert.Equal(t, tc.Member.Email, resp.User.Email)
			}
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cards/create", nil)
		req.Header.Set("Authorization", "Bearer "+tc.MemberToken)
		rr := serve(router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("stale token owner", func(t *testing.T) {
		ghost := &models.User{Base: models.Base{ID: uuid.New()}, FirstName: "Gone", Email: "gone@example.com", Role: models.RoleMember}
		token := testutil.GenerateTestToken(t, tc.JWTService, ghost)

		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/cards/create", map[string]string{"name": "x"}, token)
		rr := serve(router, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("no token", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/cards/create", map[string]string{"name": "x"})
		rr := serve(router, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestCardHandler_Get(t *testing.T) {
	router, tc := setupCardTestRouter(t)
	defer tc.Cleanup()

	card := testutil.CreateTestCard(t, tc.DB, tc.Member.ID, testutil.CardFixture{Name: "Mine", CreatedAt: time.Now()})
	other := testutil.CreateTestUser(t, tc.DB, models.RoleMember)
	otherToken := testutil.GenerateTestToken(t, tc.JWTService, other)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{"owner", "/cards/get/" + card.ID.String(), tc.MemberToken, http.StatusOK},
		{"admin", "/cards/get/" + card.ID.String(), tc.AdminToken, http.StatusOK},
		{"other member", "/cards/get/" + card.ID.String(), otherToken, http.StatusUnauthorized},
		{"unknown id", "/cards/get/" + uuid.New().String(), tc.MemberToken, http.StatusNotFound},
		{"malformed id", "/cards/get/not-a-uuid", tc.MemberToken, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest(t, http.MethodGet, tt.path, nil, tt.token)
			rr := serve(router, req)
			testutil.AssertStatus(t, rr, tt.wantStatus)
		})
	}
}

func TestCardHandler_List(t *testing.T) {
	router, tc := setupCardTestRouter(t)
	defer tc.Cleanup()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	testutil.CreateTestCard(t, tc.DB, tc.Member.ID, testutil.CardFixture{Name: "Zeta", Color: "#00FF00", CreatedAt: base})
	testutil.CreateTestCard(t, tc.DB, tc.Member.ID, testutil.CardFixture{Name: "alpha", Status: models.CardStatusDone, CreatedAt: base.Add(24 * time.Hour)})
	testutil.CreateTestCard(t, tc.DB, tc.Admin.ID, testutil.CardFixture{Name: "Admin card", CreatedAt: base.Add(48 * time.Hour)})

	list := func(t *testing.T, query, token string) (*httptest.ResponseRecorder, dto.PaginatedResult[dto.CardResponse]) {
		t.Helper()
		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/cards/list"+query, nil, token)
		rr := serve(router, req)
		var resp dto.PaginatedResult[dto.CardResponse]
		if rr.Code == http.StatusOK {
			testutil.ParseJSONResponse(t, rr, &resp)
		}
		return rr, resp
	}

	t.Run("member sees own cards with defaults", func(t *testing.T) {
		rr, resp := list(t, "", tc.MemberToken)
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, int64(2), resp.TotalCount)
		assert.Equal(t, 1, resp.PageIndex)
		assert.Equal(t, 50, resp.PageSize)
		assert.False(t, resp.HasNextPage)
		assert.False(t, resp.HasPreviousPage)
	})

	t.Run("admin sees all", func(t *testing.T) {
		_, resp := list(t, "", tc.AdminToken)
		assert.Equal(t, int64(3), resp.TotalCount)
	})

	t.Run("sort by name", func(t *testing.T) {
		_, resp := list(t, "?sortBy=name", tc.MemberToken)
		require.Len(t, resp.Data, 2)
		assert.Equal(t, "alpha", resp.Data[0].Name)
		assert.Equal(t, "Zeta", resp.Data[1].Name)
	})

	t.Run("status filter", func(t *testing.T) {
		_, resp := list(t, "?status=done", tc.MemberToken)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "Done", resp.Data[0].Status)
	})

	t.Run("color filter", func(t *testing.T) {
		_, resp := list(t, "?color=%2300ff00", tc.MemberToken)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "Zeta", resp.Data[0].Name)
	})

	t.Run("date-only toDate covers the day", func(t *testing.T) {
		_, resp := list(t, "?fromDate=2024-05-02&toDate=2024-05-02", tc.MemberToken)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "alpha", resp.Data[0].Name)
	})

	t.Run("paging", func(t *testing.T) {
		_, resp := list(t, "?pageIndex=2&pageSize=1", tc.MemberToken)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, int64(2), resp.TotalCount)
		assert.False(t, resp.HasNextPage)
		assert.True(t, resp.HasPreviousPage)
	})

	t.Run("huge pageIndex is past the end", func(t *testing.T) {
		rr, resp := list(t, "?pageIndex=184467440737095518", tc.MemberToken)
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Empty(t, resp.Data)
		assert.Equal(t, int64(2), resp.TotalCount)
		assert.False(t, resp.HasNextPage)
		assert.True(t, resp.HasPreviousPage)
	})

	for _, q := range []string{"?sortBy=Owner", "?status=Archived", "?fromDate=yesterday", "?pageSize=ten"} {
		t.Run("bad query "+q, func(t *testing.T) {
			rr, _ := list(t, q, tc.MemberToken)
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestCardHandler_Update(t *testing.T) {
	router, tc := setupCardTestRouter(t)
	defer tc.Cleanup()

	card := testutil.CreateTestCard(t, tc.DB, tc.Member.ID, testutil.CardFixture{
		Name:        "Original",
		Description: "keep",
		Color:       "#123456",
		CreatedAt:   time.Now(),
	})
	other := testutil.CreateTestUser(t, tc.DB, models.RoleMember)
	otherToken := testutil.GenerateTestToken(t, tc.JWTService, other)
	path := "/cards/update/" + card.ID.String()

	t.Run("color only", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPut, path, map[string]string{"color": "#FFFFFF"}, tc.MemberToken)
		rr := serve(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.CardResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Original", resp.Name)
		require.NotNil(t, resp.Description)
		assert.Equal(t, "keep", *resp.Description)
		assert.Equal(t, "#FFFFFF", *resp.Color)
		assert.Equal(t, "ToDo", resp.Status)
	})

	t.Run("status by name", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPut, path, map[string]string{"status": "InProgress"}, tc.AdminToken)
		rr := serve(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.CardResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "InProgress", resp.Status)
	})

	t.Run("invalid status", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPut, path, map[string]string{"status": "Blocked"}, tc.MemberToken)
		testutil.AssertStatus(t, serve(router, req), http.StatusBadRequest)
	})

	t.Run("other member", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPut, path, map[string]string{"name": "Mine now"}, otherToken)
		testutil.AssertStatus(t, serve(router, req), http.StatusUnauthorized)
	})

	t.Run("unknown id", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPut, "/cards/update/"+uuid.New().String(), map[string]string{"name": "x"}, tc.MemberToken)
		testutil.AssertStatus(t, serve(router, req), http.StatusNotFound)
	})
}

func TestCardHandler_DeleteAndHistory(t *testing.T) {
	router, tc := setupCardTestRouter(t)
	defer tc.Cleanup()

	req := testutil.AuthenticatedRequest(t, http.MethodPost, "/cards/create", map[string]string{"name": "Short lived"}, tc.MemberToken)
	rr := serve(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var created dto.CardResponse
	testutil.ParseJSONResponse(t, rr, &created)

	other := testutil.CreateTestUser(t, tc.DB, models.RoleMember)
	otherToken := testutil.GenerateTestToken(t, tc.JWTService, other)

	req = testutil.AuthenticatedRequest(t, http.MethodDelete, "/cards/delete/"+created.ID, nil, otherToken)
	testutil.AssertStatus(t, serve(router, req), http.StatusUnauthorized)

	req = testutil.AuthenticatedRequest(t, http.MethodDelete, "/cards/delete/"+created.ID, nil, tc.MemberToken)
	rr = serve(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Empty(t, rr.Body.String())

	req = testutil.AuthenticatedRequest(t, http.MethodDelete, "/cards/delete/"+created.ID, nil, tc.MemberToken)
	testutil.AssertStatus(t, serve(router, req), http.StatusNotFound)

	req = testutil.AuthenticatedRequest(t, http.MethodGet, "/cards/history/"+created.ID, nil, tc.MemberToken)
	rr = serve(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var history dto.PaginatedResult[dto.CardEventResponse]
	testutil.ParseJSONResponse(t, rr, &history)
	require.Len(t, history.Data, 2)
	assert.Equal(t, "created", history.Data[0].Action)
	assert.Equal(t, "deleted", history.Data[1].Action)

	req = testutil.AuthenticatedRequest(t, http.MethodGet, "/cards/history/"+created.ID, nil, otherToken)
	testutil.AssertStatus(t, serve(router, req), http.StatusUnauthorized)
}

func TestUserHandler_Register(t *testing.T) {
	router, tc := setupUserTestRouter(t)
	defer tc.Cleanup()

	body := map[string]string{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
		"password":  testutil.TestPassword,
	}

	rr := serve(router, testutil.UnauthenticatedRequest(t, http.MethodPost, "/users/register", body))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var user dto.UserResponse
	testutil.ParseJSONResponse(t, rr, &user)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "Member", user.Role)
	assert.NotContains(t, rr.Body.String(), "password")

	// same email again
	rr = serve(router, testutil.UnauthenticatedRequest(t, http.MethodPost, "/users/register", body))
	testutil.AssertStatus(t, rr, http.StatusConflict)

	tests := []struct {
		name  string
		patch map[string]string
	}{
		{"weak password", map[string]string{"password": "weakpassword"}},
		{"bad email", map[string]string{"email": "not-an-email"}},
		{"unknown role", map[string]string{"role": "Owner"}},
		{"missing first name", map[string]string{"firstName": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := map[string]string{}
			for k, v := range body {
				req[k] = v
			}
			req["email"] = "fresh-" + uuid.NewString()[:8] + "@example.com"
			for k, v := range tt.patch {
				req[k] = v
			}

			rr := serve(router, testutil.UnauthenticatedRequest(t, http.MethodPost, "/users/register", req))
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestUserHandler_Login(t *testing.T) {
	router, tc := setupUserTestRouter(t)
	defer tc.Cleanup()

	t.Run("returns token string", func(t *testing.T) {
		rr := serve(router, testutil.UnauthenticatedRequest(t, http.MethodPost, "/users/login", map[string]string{
			"email":    tc.Member.Email,
			"password": testutil.TestPassword,
		}))
		testutil.AssertStatus(t, rr, http.StatusOK)

		var token string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &token))

		claims, err := tc.JWTService.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, tc.Member.ID.String(), claims.Subject)
	})

	t.Run("bad credentials share one message", func(t *testing.T) {
		wrong := serve(router, testutil.UnauthenticatedRequest(t, http.MethodPost, "/users/login", map[string]string{
			"email":    tc.Member.Email,
			"password": "Nope12345",
		}))
		unknown := serve(router, testutil.UnauthenticatedRequest(t, http.MethodPost, "/users/login", map[string]string{
			"email":    "nobody@example.com",
			"password": testutil.TestPassword,
		}))

		testutil.AssertStatus(t, wrong, http.StatusBadRequest)
		testutil.AssertStatus(t, unknown, http.StatusBadRequest)
		assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	})
}

func TestUserHandler_ListAndMe(t *testing.T) {
	router, tc := setupUserTestRouter(t)
	defer tc.Cleanup()

	rr := serve(router, testutil.AuthenticatedRequest(t, http.MethodGet, "/users/list", nil, tc.MemberToken))
	testutil.AssertStatus(t, rr, http.StatusForbidden)

	rr = serve(router, testutil.AuthenticatedRequest(t, http.MethodGet, "/users/list?pageSize=1", nil, tc.AdminToken))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var page dto.PaginatedResult[dto.UserResponse]
	testutil.ParseJSONResponse(t, rr, &page)
	assert.Equal(t, int64(2), page.TotalCount)
	assert.Len(t, page.Data, 1)
	assert.True(t, page.HasNextPage)

	rr = serve(router, testutil.AuthenticatedRequest(t, http.MethodGet, "/users/me", nil, tc.MemberToken))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var me dto.UserResponse
	testutil.ParseJSONResponse(t, rr, &me)
	assert.Equal(t, tc.Member.ID.String(), me.ID)
}
