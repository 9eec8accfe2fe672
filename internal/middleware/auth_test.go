package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vpnshop/config"
	"vpnshop/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authTestRouter(cfg *config.AuthConfig) *gin.Engine {
	r := gin.New()
	r.GET("/secure", ServiceAuth(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": c.GetString("service")})
	})
	return r
}

func TestServiceAuth(t *testing.T) {
	cfg := &config.AuthConfig{ServiceSecret: "secret", Issuer: "vpnshop-bot"}
	r := authTestRouter(cfg)

	token, err := auth.GenerateServiceToken(cfg, "bot", time.Minute)
	require.NoError(t, err)

	// Bearer header.
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bot"`)

	// Query parameter fallback (websocket upgrades).
	req = httptest.NewRequest(http.MethodGet, "/secure?token="+token, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServiceAuthRejects(t *testing.T) {
	cfg := &config.AuthConfig{ServiceSecret: "secret", Issuer: "vpnshop-bot"}
	r := authTestRouter(cfg)

	// No token.
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong secret.
	otherCfg := &config.AuthConfig{ServiceSecret: "other", Issuer: "vpnshop-bot"}
	token, err := auth.GenerateServiceToken(otherCfg, "bot", time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong issuer.
	wrongIssuer := &config.AuthConfig{ServiceSecret: "secret", Issuer: "someone-else"}
	token, err = auth.GenerateServiceToken(wrongIssuer, "bot", time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Expired token.
	token, err = auth.GenerateServiceToken(cfg, "bot", -time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
