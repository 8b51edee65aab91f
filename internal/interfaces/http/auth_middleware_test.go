package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/Almacen-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "almacen-identity-test"
)

// buildTestApp aplicación Fiber mínima con el middleware de auth y un handler
// que refleja la identidad extraída a locals.
func buildTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret, testIssuer),
		func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"user_id":   apphttp.GetUserID(c),
				"tenant_id": apphttp.GetTenantID(c),
				"role":      apphttp.GetRole(c),
			})
		},
	)
	return app
}

// tokenOpts variaciones sobre el token de prueba; el cero vale como token
// válido de un operador con tenant.
type tokenOpts struct {
	secret   string
	issuer   string
	userID   int64
	tenantID *int64
	role     string
	expires  time.Duration
}

// buildToken genera un JWT HS256 como lo emitiría el servicio de identidad.
func buildToken(t *testing.T, opts tokenOpts) string {
	t.Helper()
	if opts.secret == "" {
		opts.secret = testJWTSecret
	}
	if opts.issuer == "" {
		opts.issuer = testIssuer
	}
	if opts.expires == 0 {
		opts.expires = time.Hour
	}
	claims := jwt.MapClaims{
		"user_id": opts.userID,
		"role":    opts.role,
		"iss":     opts.issuer,
		"exp":     time.Now().Add(opts.expires).Unix(),
	}
	if opts.tenantID != nil {
		claims["tenant_id"] = *opts.tenantID
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(opts.secret))
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// doRequest lanza una petición GET /protected y devuelve la respuesta.
func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	code, _ := body["code"].(string)
	return code
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

// Caso 1: token válido → 200 y la identidad queda disponible en locals.
func TestAuthMiddleware_TokenValidoExtraeIdentidad(t *testing.T) {
	app := buildTestApp()
	tenant := int64(3)
	resp := doRequest(t, app, buildToken(t, tokenOpts{userID: 7, tenantID: &tenant, role: "operator"}))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(7), body["user_id"])
	assert.Equal(t, float64(3), body["tenant_id"])
	assert.Equal(t, "operator", body["role"])
}

// Caso 2: operador global, sin tenant en el token → tenant_id null en locals.
func TestAuthMiddleware_OperadorGlobalSinTenant(t *testing.T) {
	app := buildTestApp()
	resp := doRequest(t, app, buildToken(t, tokenOpts{userID: 7, role: "admin"}))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Nil(t, body["tenant_id"])
}

// Caso 3: sin header Authorization → 401 MISSING_TOKEN.
func TestAuthMiddleware_SinHeader(t *testing.T) {
	app := buildTestApp()
	resp := doRequest(t, app, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", errorCode(t, resp))
}

// Caso 4: header sin esquema Bearer → 401 INVALID_TOKEN.
func TestAuthMiddleware_HeaderMalformado(t *testing.T) {
	app := buildTestApp()
	resp := doRequest(t, app, "Basic abc123")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, resp))
}

// Caso 5: token firmado con otro secreto → 401.
func TestAuthMiddleware_FirmaInvalida(t *testing.T) {
	app := buildTestApp()
	resp := doRequest(t, app, buildToken(t, tokenOpts{userID: 7, secret: "otro-secreto"}))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, resp))
}

// Caso 6: issuer distinto al configurado → 401.
func TestAuthMiddleware_IssuerNoReconocido(t *testing.T) {
	app := buildTestApp()
	resp := doRequest(t, app, buildToken(t, tokenOpts{userID: 7, issuer: "otro-emisor"}))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Caso 7: token expirado → 401.
func TestAuthMiddleware_TokenExpirado(t *testing.T) {
	app := buildTestApp()
	resp := doRequest(t, app, buildToken(t, tokenOpts{userID: 7, expires: -time.Minute}))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Caso 8: token sin user_id → 401, la identidad es obligatoria.
func TestAuthMiddleware_SinUserID(t *testing.T) {
	app := buildTestApp()
	resp := doRequest(t, app, buildToken(t, tokenOpts{userID: 0}))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
