package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AdminStore,TenantStore,PasswordHasher

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	adminmodels "smartparking/internal/admin/models"
	"smartparking/internal/auth/events"
	"smartparking/internal/auth/metrics"
	"smartparking/internal/auth/ratelimit"
	"smartparking/internal/auth/service/mocks"
	"smartparking/internal/auth/store/revocation"
	"smartparking/internal/auth/token"
	tenantmodels "smartparking/internal/tenant/models"
	"smartparking/internal/tenant/tenantctx"
	id "smartparking/pkg/domain"
)

const (
	testEmail    = "admin@acme.com"
	testPassword = "Secr3t!pass"
)

var storedHash = strings.Repeat("ab", 32) + ":" + strings.Repeat("cd", 64)

// recordingPublisher captures published events in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.LoginEvent
}

func (p *recordingPublisher) Publish(e events.LoginEvent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return true
}

func (p *recordingPublisher) last() (events.LoginEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return events.LoginEvent{}, false
	}
	return p.events[len(p.events)-1], true
}

type ServiceSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockAdmins  *mocks.MockAdminStore
	mockTenants *mocks.MockTenantStore
	mockHasher  *mocks.MockPasswordHasher
	tokens      *token.Service
	ledger      *revocation.InMemoryLedger
	publisher   *recordingPublisher
	metrics     *metrics.Metrics
	service     *Service

	mu     sync.Mutex
	now    time.Time
	tenant *tenantmodels.Tenant
	tc     *tenantctx.Context
	admin  *adminmodels.Admin
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockAdmins = mocks.NewMockAdminStore(s.ctrl)
	s.mockTenants = mocks.NewMockTenantStore(s.ctrl)
	s.mockHasher = mocks.NewMockPasswordHasher(s.ctrl)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var err error
	s.tokens, err = token.New(token.Config{
		AccessSecret:  "test-access-secret-0123456789abcdef",
		RefreshSecret: "test-refresh-secret-0123456789abcdef",
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}, token.WithClock(s.clock))
	s.Require().NoError(err)
	s.ledger = revocation.NewInMemoryLedger(revocation.WithClock(s.clock))
	s.publisher = &recordingPublisher{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = s.newService(DefaultConfig())

	s.tenant, err = tenantmodels.NewTenant(id.NewTenantID(), "acme", "Acme", "", tenantmodels.Settings{}, s.now)
	s.Require().NoError(err)
	s.tc = tenantctx.New(s.tenant)
	s.admin, err = adminmodels.NewAdmin(id.NewAdminID(), s.tenant.ID, testEmail, "Acme Admin", storedHash, s.now)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) newService(cfg Config) *Service {
	limiter := ratelimit.New(ratelimit.NewInMemoryStore(), ratelimit.Config{
		Account: ratelimit.Policy{MaxAttempts: 3, Window: 15 * time.Minute},
		IP:      ratelimit.Policy{MaxAttempts: 50, Window: 15 * time.Minute},
	}, ratelimit.WithClock(s.clock))
	return New(s.mockAdmins, s.mockTenants, s.mockHasher, s.tokens, s.ledger, cfg,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithRateLimiter(limiter),
		WithPublisher(s.publisher),
		WithClock(s.clock),
	)
}

func (s *ServiceSuite) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ServiceSuite) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

// adminCopy returns a fresh copy so tests cannot observe each other's mutations.
func (s *ServiceSuite) adminCopy() *adminmodels.Admin {
	a := *s.admin
	return &a
}
