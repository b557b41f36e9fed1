package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-wallet-accounts/internal/application"
	"github.com/oksasatya/go-wallet-accounts/internal/infrastructure/jsonfile"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := jsonfile.NewAccountStore(filepath.Join(t.TempDir(), "Accounts.json"), logger)
	require.NoError(t, err)
	h := NewAccountHandler(application.NewAccountService(store, logger), logger)

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(MethodNotAllowed)
	api := r.Group("/api")
	api.POST("/accounts", h.Handle)
	api.GET("/accounts/search", h.Search)
	api.GET("/accounts/:username", h.Get)
	api.GET("/health", h.Health)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestHandle_CreateAndUpdate(t *testing.T) {
	r := newTestEngine(t)

	w, out := do(t, r, http.MethodPost, "/api/accounts", `{"action":"create","username":"alice","email":"a@x.com","password":"p1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Account created successfully", out["message"])
	addr, _ := out["walletAddress"].(string)
	assert.Len(t, addr, 66)

	w, out = do(t, r, http.MethodPost, "/api/accounts", `{"action":"update","username":"alice","newUsername":"alice2","dailySendLimit":"500"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Account updated successfully", out["message"])
	account, ok := out["account"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice2", account["username"])
	assert.Equal(t, 500.0, account["dailySendLimit"])
	assert.Equal(t, addr, account["walletAddress"])
	assert.Nil(t, account["singleTxLimit"])
	for _, secret := range []string{"password", "privateKey", "publicKey"} {
		assert.NotContains(t, account, secret)
	}
	assert.NotContains(t, w.Body.String(), "p1")
}

func TestHandle_OmittedActionCreates(t *testing.T) {
	r := newTestEngine(t)
	w, out := do(t, r, http.MethodPost, "/api/accounts", `{"username":"bob","email":"b@x.com","password":"p"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, out["walletAddress"])
}

func TestHandle_Errors(t *testing.T) {
	r := newTestEngine(t)
	_, _ = do(t, r, http.MethodPost, "/api/accounts", `{"username":"alice","email":"a@x.com","password":"p1"}`)

	cases := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"undecodable", `{"username":`, http.StatusBadRequest, "Invalid data"},
		{"empty object", `{}`, http.StatusBadRequest, "Invalid data"},
		{"null body", `null`, http.StatusBadRequest, "Invalid data"},
		{"empty body", ``, http.StatusBadRequest, "Invalid data"},
		{"array body", `[{"username":"x"}]`, http.StatusBadRequest, "Invalid data"},
		{"non numeric limit", `{"action":"update","username":"alice","dailySendLimit":"lots"}`, http.StatusBadRequest, "Invalid data"},
		{"infinite limit", `{"action":"update","username":"alice","dailySendLimit":"Inf"}`, http.StatusBadRequest, "Invalid data"},
		{"nan limit", `{"action":"update","username":"alice","singleTxLimit":"NaN"}`, http.StatusBadRequest, "Invalid data"},
		{"unknown action", `{"action":"delete","username":"alice"}`, http.StatusBadRequest, "Unsupported action"},
		{"missing fields", `{"username":"carol"}`, http.StatusBadRequest, "All fields are required"},
		{"duplicate", `{"username":"alice","email":"x@x.com","password":"p"}`, http.StatusConflict, "Username already exists"},
		{"update without username", `{"action":"update","email":"x@x.com"}`, http.StatusBadRequest, "Username is required for update"},
		{"update missing", `{"action":"update","username":"nobody"}`, http.StatusNotFound, "Account not found"},
		{"wrong password", `{"action":"update","username":"alice","oldPassword":"bad","newPassword":"x"}`, http.StatusUnauthorized, "Old password is incorrect"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, out := do(t, r, http.MethodPost, "/api/accounts", tc.body)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, false, out["success"])
			assert.Equal(t, tc.message, out["message"])
		})
	}
}

func TestHandle_MethodNotAllowed(t *testing.T) {
	r := newTestEngine(t)
	for _, m := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		w, out := do(t, r, m, "/api/accounts", `{}`)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, m)
		assert.Equal(t, "Method not allowed", out["message"])
	}
}

func TestGetAndHealth(t *testing.T) {
	r := newTestEngine(t)
	_, _ = do(t, r, http.MethodPost, "/api/accounts", `{"username":"alice","email":"a@x.com","password":"p1"}`)

	w, out := do(t, r, http.MethodGet, "/api/accounts/alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	account := out["account"].(map[string]any)
	assert.Equal(t, "a@x.com", account["email"])

	w, _ = do(t, r, http.MethodGet, "/api/accounts/nobody", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, out = do(t, r, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["success"])
}

func TestSearch(t *testing.T) {
	r := newTestEngine(t)

	w, _ := do(t, r, http.MethodGet, "/api/accounts/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out := do(t, r, http.MethodGet, "/api/accounts/search?q=alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, out["data"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("x")))
	assert.Equal(t, http.StatusConflict, StatusFor(&application.Error{Kind: application.ErrConflict}))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(&application.Error{Kind: application.ErrPersistence}))
}

func TestFlexNumber(t *testing.T) {
	var v struct {
		N *FlexNumber `json:"n"`
	}
	for in, want := range map[string]float64{`{"n":12.5}`: 12.5, `{"n":"7"}`: 7, `{"n":" 3.25 "}`: 3.25, `{"n":0}`: 0} {
		v.N = nil
		require.NoError(t, json.NewDecoder(bytes.NewReader([]byte(in))).Decode(&v), in)
		require.NotNil(t, v.N)
		assert.Equal(t, want, *v.N.Float64Ptr())
	}

	v.N = nil
	require.NoError(t, json.Unmarshal([]byte(`{"n":null}`), &v))
	assert.Nil(t, v.N.Float64Ptr())

	assert.Error(t, json.Unmarshal([]byte(`{"n":"abc"}`), &v))
	for _, bad := range []string{"Inf", "-Infinity", "NaN", "+inf", "1e400"} {
		assert.Error(t, json.Unmarshal([]byte(`{"n":"`+bad+`"}`), &v), bad)
	}
	assert.Error(t, json.Unmarshal([]byte(`{"n":true}`), &v))
}
