package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gatorauth/internal/common"
	"github.com/dmitrijs2005/gatorauth/internal/cryptox"
	"github.com/dmitrijs2005/gatorauth/internal/logging"
	"github.com/dmitrijs2005/gatorauth/internal/server/auth"
	"github.com/dmitrijs2005/gatorauth/internal/server/blacklist"
	"github.com/dmitrijs2005/gatorauth/internal/server/config"
	"github.com/dmitrijs2005/gatorauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gatorauth/internal/server/services"
	"github.com/dmitrijs2005/gatorauth/internal/server/storage"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-api-key"

var (
	keysOnce              sync.Once
	accessKey, refreshKey auth.KeyPair
	keysErr               error
)

func testKeys(t *testing.T) (auth.KeyPair, auth.KeyPair) {
	t.Helper()
	keysOnce.Do(func() {
		accessKey, keysErr = auth.GenerateKeyPair(auth.DefaultKeyBits)
		if keysErr != nil {
			return
		}
		refreshKey, keysErr = auth.GenerateKeyPair(auth.DefaultKeyBits)
	})
	require.NoError(t, keysErr)
	return accessKey, refreshKey
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	t      *testing.T
	cfg    *config.Config
	clock  *clock
	server *HTTPServer
	ts     *httptest.Server
}

// newHarness wires the real services over an in-memory SQLite store.
func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIKey = testAPIKey
	cfg.DatabaseDriver = repomanager.DriverSQLite
	cfg.DatabaseDSN = "file:" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "?mode=memory&cache=shared"
	for _, m := range mutate {
		m(cfg)
	}

	ctx := context.Background()
	rm, err := repomanager.NewSQLRepositoryManager(cfg.DatabaseDriver)
	require.NoError(t, err)
	db, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, time.Second, rm, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clk := &clock{now: time.Now()}
	a, r := testKeys(t)
	codec, err := auth.NewCodec(a, r, blacklist.NewGate(rm.Blacklist(db)), auth.WithClock(clk.Now))
	require.NoError(t, err)

	hasher := cryptox.NewBcryptHasher(4)
	us := services.NewUserService(db, rm, hasher)
	ss := services.NewSessionService(db, rm, codec, hasher, cfg, logging.Nop())

	srv := NewHTTPServer(cfg, logging.Nop(), us, ss)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &harness{t: t, cfg: cfg, clock: clk, server: srv, ts: ts}
}

type call struct {
	method  string
	path    string
	body    any
	bearer  string
	cookie  string
	headers map[string]string
	noKey   bool
}

func (h *harness) do(c call) *http.Response {
	h.t.Helper()

	var body bytes.Buffer
	if c.body != nil {
		require.NoError(h.t, json.NewEncoder(&body).Encode(c.body))
	}
	req, err := http.NewRequest(c.method, h.ts.URL+h.cfg.BasePath()+c.path, &body)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if !c.noKey {
		req.Header.Set(common.APIKeyHeaderName, testAPIKey)
	}
	if c.bearer != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.bearer)
	}
	if c.cookie != "" {
		req.AddCookie(&http.Cookie{Name: common.RefreshTokenCookieName, Value: c.cookie})
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := h.ts.Client().Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func refreshCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == common.RefreshTokenCookieName {
			return c
		}
	}
	return nil
}

func (h *harness) signUpAndLogin(email, password string) AuthResponse {
	h.t.Helper()
	resp := h.do(call{method: http.MethodPost, path: "/users/sign-up", body: credentialsRequest{email, password}})
	require.Equal(h.t, http.StatusOK, resp.StatusCode)
	resp = h.do(call{method: http.MethodPost, path: "/users/login", body: credentialsRequest{email, password}})
	require.Equal(h.t, http.StatusOK, resp.StatusCode)
	return decodeBody[AuthResponse](h.t, resp)
}
