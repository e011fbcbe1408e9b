package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	authmw "github.com/erisanolasheni/risevest/internal/middleware/auth"
	"github.com/erisanolasheni/risevest/internal/models"
	"github.com/erisanolasheni/risevest/internal/repository"
	"github.com/erisanolasheni/risevest/internal/session"
	"github.com/erisanolasheni/risevest/internal/token"
)

type authTestEnv struct {
	T    *testing.T
	E    *echo.Echo
	A    *AuthHandler
	Gate *authmw.Gate
	DB   *gorm.DB
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	users := repository.NewUserRepository(db)
	issuer := token.NewIssuer([]byte("test-secret"), 24*time.Hour)
	refresh := session.NewRefreshStore(rdb, 30*24*time.Hour)
	blacklist := session.NewBlacklist(rdb)
	sessions := session.NewService(users, issuer, refresh, blacklist)

	return &authTestEnv{
		T:    t,
		E:    echo.New(),
		A:    &AuthHandler{Sessions: sessions, Producer: nil},
		Gate: &authmw.Gate{Issuer: issuer, Blacklist: blacklist, Users: users},
		DB:   db,
	}
}

func (env *authTestEnv) doJSONRequest(method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func registerAndLogin(t *testing.T, env *authTestEnv, email string) tokenPairResponse {
	t.Helper()

	payload := map[string]string{"name": "Alice", "email": email, "password": "secret1"}
	rec, c := env.doJSONRequest(http.MethodPost, "/auth/register", payload, nil)
	require.NoError(t, env.A.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	recLogin, cLogin := env.doJSONRequest(http.MethodPost, "/auth/login", payload, nil)
	require.NoError(t, env.A.Login(cLogin))
	require.Equal(t, http.StatusOK, recLogin.Code)

	var pair tokenPairResponse
	require.NoError(t, json.Unmarshal(recLogin.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)
	return pair
}

func TestRegisterHandler(t *testing.T) {
	env := newAuthTestEnv(t)

	payload := map[string]string{"name": "Alice", "email": "alice@x.com", "password": "secret1"}
	rec, c := env.doJSONRequest(http.MethodPost, "/auth/register", payload, nil)
	require.NoError(t, env.A.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["id"])
	require.Equal(t, "Alice", body["name"])
	require.Equal(t, "alice@x.com", body["email"])
	require.NotContains(t, rec.Body.String(), "secret1")
	require.NotContains(t, rec.Body.String(), "PasswordHash")

	// duplicate email is a conflict
	_, cDup := env.doJSONRequest(http.MethodPost, "/auth/register", payload, nil)
	err := env.A.Register(cDup)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusConflict, he.Code)
}

func TestRegisterHandlerValidation(t *testing.T) {
	env := newAuthTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/auth/register", map[string]string{"email": "alice@x.com"}, nil)
	err := env.A.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestLoginHandler(t *testing.T) {
	env := newAuthTestEnv(t)
	registerAndLogin(t, env, "alice@x.com")

	// wrong password and unknown email produce identical rejections
	_, cWrong := env.doJSONRequest(http.MethodPost, "/auth/login",
		map[string]string{"email": "alice@x.com", "password": "wrong"}, nil)
	errWrong := env.A.Login(cWrong)

	_, cUnknown := env.doJSONRequest(http.MethodPost, "/auth/login",
		map[string]string{"email": "nobody@x.com", "password": "secret1"}, nil)
	errUnknown := env.A.Login(cUnknown)

	heWrong, ok := errWrong.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	heUnknown, ok := errUnknown.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")

	require.Equal(t, http.StatusUnauthorized, heWrong.Code)
	require.Equal(t, http.StatusUnauthorized, heUnknown.Code)
	require.Equal(t, heWrong.Message, heUnknown.Message)
}

func TestRefreshHandler(t *testing.T) {
	env := newAuthTestEnv(t)
	pair := registerAndLogin(t, env, "alice@x.com")

	rec, c := env.doJSONRequest(http.MethodPost, "/auth/refresh",
		map[string]string{"refreshToken": pair.RefreshToken}, nil)
	require.NoError(t, env.A.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var rotated tokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rotated))
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	require.Equal(t, "Bearer", rotated.TokenType)

	// the presented token is dead after rotation
	_, cOld := env.doJSONRequest(http.MethodPost, "/auth/refresh",
		map[string]string{"refreshToken": pair.RefreshToken}, nil)
	err := env.A.Refresh(cOld)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRefreshHandlerMissingToken(t *testing.T) {
	env := newAuthTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/auth/refresh", map[string]string{}, nil)
	err := env.A.Refresh(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func (env *authTestEnv) gateCheck(accessToken string) error {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	return env.Gate.RequireLogin(next)(c)
}

func TestLogoutScenario(t *testing.T) {
	env := newAuthTestEnv(t)

	pair := registerAndLogin(t, env, "alice@x.com")
	otherPair := registerAndLogin(t, env, "bob@x.com")

	// rotate once; the new pair is the live session
	rec, c := env.doJSONRequest(http.MethodPost, "/auth/refresh",
		map[string]string{"refreshToken": pair.RefreshToken}, nil)
	require.NoError(t, env.A.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var rotated tokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rotated))

	require.NoError(t, env.gateCheck(rotated.AccessToken))

	recOut, cOut := env.doJSONRequest(http.MethodPost, "/auth/logout", nil,
		map[string]string{echo.HeaderAuthorization: "Bearer " + rotated.AccessToken})
	require.NoError(t, env.A.Logout(cOut))
	require.Equal(t, http.StatusOK, recOut.Code)
	require.Contains(t, recOut.Body.String(), "message")

	// the revoked token is now rejected at the gate
	err := env.gateCheck(rotated.AccessToken)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
	require.Equal(t, "token has been revoked", he.Message)

	// a second, independent session is unaffected
	require.NoError(t, env.gateCheck(otherPair.AccessToken))

	// logging out again changes nothing and still succeeds
	recAgain, cAgain := env.doJSONRequest(http.MethodPost, "/auth/logout", nil,
		map[string]string{echo.HeaderAuthorization: "Bearer " + rotated.AccessToken})
	require.NoError(t, env.A.Logout(cAgain))
	require.Equal(t, http.StatusOK, recAgain.Code)
}

func TestLogoutWithoutHeader(t *testing.T) {
	env := newAuthTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/auth/logout", nil, nil)
	err := env.A.Logout(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusInternalServerError, he.Code)
}
