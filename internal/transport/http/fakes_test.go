package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/myadmin/myadmin/internal/audit"
	"github.com/myadmin/myadmin/internal/authz"
	"github.com/myadmin/myadmin/internal/cache"
	"github.com/myadmin/myadmin/internal/ledger"
	"github.com/myadmin/myadmin/internal/oidc"
	"github.com/myadmin/myadmin/internal/tenant"
)

const testSecret = "transport-test-secret-0123456789abcdef"

// Mock verifier for paths where the token content does not matter.
type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, raw string) (jwt.MapClaims, error) {
	args := m.Called(ctx, raw)
	claims, _ := args.Get(0).(jwt.MapClaims)
	return claims, args.Error(1)
}

// recordingAudit keeps every audit event in memory.
type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingAudit) ofType(typ string) []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// memTenantStore implements the module, config and role repositories.
type memTenantStore struct {
	mu      sync.Mutex
	modules map[string]map[tenant.Module]tenant.ModuleSetting
	config  map[string]map[string]tenant.ConfigEntry
	roles   []*tenant.UserRole
}

func newMemTenantStore() *memTenantStore {
	return &memTenantStore{
		modules: make(map[string]map[tenant.Module]tenant.ModuleSetting),
		config:  make(map[string]map[string]tenant.ConfigEntry),
	}
}

func (s *memTenantStore) ListModules(_ context.Context, t string) ([]tenant.ModuleSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tenant.ModuleSetting
	for _, m := range s.modules[t] {
		out = append(out, m)
	}
	return out, nil
}

func (s *memTenantStore) SetModule(_ context.Context, m tenant.ModuleSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modules[m.Tenant] == nil {
		s.modules[m.Tenant] = make(map[tenant.Module]tenant.ModuleSetting)
	}
	s.modules[m.Tenant][m.Module] = m
	return nil
}

func (s *memTenantStore) enable(t string, mods ...tenant.Module) {
	for _, m := range mods {
		_ = s.SetModule(context.Background(), tenant.ModuleSetting{Tenant: t, Module: m, Enabled: true})
	}
}

func (s *memTenantStore) GetConfig(_ context.Context, t, key string) (*tenant.ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, found := s.config[t][key]
	if !found {
		return nil, tenant.ErrConfigNotFound
	}
	return &e, nil
}

func (s *memTenantStore) ListConfig(_ context.Context, t string) ([]tenant.ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tenant.ConfigEntry
	for _, e := range s.config[t] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *memTenantStore) SetConfig(_ context.Context, e *tenant.ConfigEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config[e.Tenant] == nil {
		s.config[e.Tenant] = make(map[string]tenant.ConfigEntry)
	}
	s.config[e.Tenant][e.Key] = *e
	return nil
}

func (s *memTenantStore) AssignRole(_ context.Context, r *tenant.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.roles {
		if g.Tenant == r.Tenant && g.Email == r.Email && g.Role == r.Role {
			return tenant.ErrRoleAlreadyExists
		}
	}
	cp := *r
	s.roles = append(s.roles, &cp)
	return nil
}

func (s *memTenantStore) RevokeRole(_ context.Context, t, email, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.roles {
		if g.Tenant == t && g.Email == email && g.Role == role {
			s.roles = append(s.roles[:i], s.roles[i+1:]...)
			return nil
		}
	}
	return tenant.ErrRoleNotFound
}

func (s *memTenantStore) ListTenantRoles(_ context.Context, t string) ([]*tenant.UserRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*tenant.UserRole
	for _, g := range s.roles {
		if g.Tenant == t {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memLedger is an administration-scoped ledger.Repository.
type memLedger struct {
	mu     sync.Mutex
	nextID int64
	rows   []*ledger.Transaction
	// listErr fails List, as an unreachable database would.
	listErr error
}

func (m *memLedger) Insert(_ context.Context, tx *ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	tx.ID = m.nextID
	cp := *tx
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memLedger) InsertBatch(ctx context.Context, administration string, txs []*ledger.Transaction) error {
	for _, tx := range txs {
		if tx.Administration != administration {
			return ledger.ErrTenantMismatch
		}
	}
	for _, tx := range txs {
		_ = m.Insert(ctx, tx)
	}
	return nil
}

func (m *memLedger) List(_ context.Context, administration string, f ledger.Filter) ([]*ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*ledger.Transaction
	for _, r := range m.rows {
		if r.Administration != administration {
			continue
		}
		if f.Account != "" && r.Debet != f.Account && r.Credit != f.Account {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memLedger) LatestByDescriptionPrefix(_ context.Context, administration, prefix string) (*ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *ledger.Transaction
	for _, r := range m.rows {
		if r.Administration == administration && strings.HasPrefix(r.Description, prefix) {
			if best == nil || !r.Date.Before(best.Date) {
				best = r
			}
		}
	}
	if best == nil {
		return nil, ledger.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memLedger) History(_ context.Context, administration, account string, since time.Time, _ int) ([]*ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ledger.Transaction
	for _, r := range m.rows {
		if r.Administration == administration && !r.Date.Before(since) && (r.Debet == account || r.Credit == account) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLedger) count(administration string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.Administration == administration {
			n++
		}
	}
	return n
}

type testServer struct {
	router  http.Handler
	tenants *memTenantStore
	ledger  *memLedger
	audit   *recordingAudit
	store   *cache.MemoryStore
	cache   *cache.Cache
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	srv := &testServer{
		tenants: newMemTenantStore(),
		ledger:  &memLedger{},
		audit:   &recordingAudit{},
		store:   cache.NewMemoryStore(),
	}
	srv.cache = cache.New(srv.store, "test", time.Minute)
	secrets, err := tenant.NewSecretBox(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	tenants := tenant.NewService(srv.tenants, srv.tenants, srv.tenants, secrets, srv.audit)
	h := NewHandler(Dependencies{
		Verifier:    mustVerifier(t),
		Authz:       authz.NewService(tenants),
		Tenants:     tenants,
		Ledger:      ledger.NewService(srv.ledger, srv.cache, nil, srv.audit),
		Cache:       srv.cache,
		Profiles:    map[string]*ledger.Profile{"rabo": testProfile(t)},
		AuditLogger: srv.audit,
	})

	rl := NewRateLimiter(1000, 1000)
	t.Cleanup(rl.Stop)
	srv.router = NewRouter(h, rl)
	return srv
}

func mustVerifier(t *testing.T) *oidc.Verifier {
	t.Helper()
	v, err := oidc.NewVerifier(oidc.Config{HMACSecret: testSecret})
	require.NoError(t, err)
	return v
}

func newTestAuthz(srv *testServer) *authz.Service {
	return authz.NewService(tenant.NewService(srv.tenants, srv.tenants, srv.tenants, nil, srv.audit))
}

func testProfile(t *testing.T) *ledger.Profile {
	t.Helper()
	p := &ledger.Profile{
		Name:            "rabo",
		BankAccount:     "1002",
		SuspenseAccount: "2999",
		Columns: ledger.Columns{
			Date:        "Datum",
			Description: "Omschrijving",
			Amount:      "Bedrag",
		},
	}
	require.NoError(t, p.Validate())
	return p
}

// signToken issues an id token for email carrying tenants (any claim
// shape) and roles.
func signToken(t *testing.T, email string, tenants any, roles ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   "sub-" + email,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	if tenants != nil {
		claims[tenant.ClaimTenants] = tenants
	}
	if len(roles) > 0 {
		claims[tenant.ClaimGroups] = roles
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func newRequest(method, path, token, activeTenant string) *http.Request {
	return newRequestWithBody(method, path, token, activeTenant, nil, "")
}

func newRequestWithBody(method, path, token, activeTenant string, body io.Reader, contentType string) *http.Request {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if activeTenant != "" {
		req.Header.Set(tenant.HeaderTenant, activeTenant)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) do(method, path, token, activeTenant string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	return serve(s.router, newRequestWithBody(method, path, token, activeTenant, body, contentType))
}
