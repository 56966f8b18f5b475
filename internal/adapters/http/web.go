package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/adapters/http/perf"
	accountStore "gymdesk/internal/adapters/storage/account"
	auditStore "gymdesk/internal/adapters/storage/audit"
	exerciseStore "gymdesk/internal/adapters/storage/exercise"
	gymStore "gymdesk/internal/adapters/storage/gym"
	leadStore "gymdesk/internal/adapters/storage/lead"
	memberStore "gymdesk/internal/adapters/storage/member"
	membershipStore "gymdesk/internal/adapters/storage/membership"
	outboxStore "gymdesk/internal/adapters/storage/outbox"
	planStore "gymdesk/internal/adapters/storage/plan"
	shopStore "gymdesk/internal/adapters/storage/shop"
	trainerStore "gymdesk/internal/adapters/storage/trainer"
	"gymdesk/internal/application/engine"
	"gymdesk/internal/application/projections"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore    accountStore.Store
	GymStore        gymStore.Store
	MemberStore     memberStore.Store
	LeadStore       leadStore.Store
	TrainerStore    trainerStore.Store
	MembershipStore membershipStore.Store
	ProductStore    shopStore.ProductStore
	OrderStore      shopStore.OrderStore
	ExerciseStore   exerciseStore.Store
	PlanStore       planStore.Store
	AuditStore      auditStore.Store
	OutboxStore     outboxStore.Store
	// SessionStore serves the completed-session history; live session
	// mutations go through the engine registry instead.
	SessionStore projections.TrainingLogSessionStore
}

// Options configures the HTTP surface.
type Options struct {
	StaticDir string
	// CSRFKeyHex is the hex-encoded 32-byte CSRF secret. Empty generates a
	// random key (development only).
	CSRFKeyHex string
	Production bool
}

// loadCSRFKey decodes the configured CSRF secret (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey(keyHex string, production bool) []byte {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("CSRF key must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if production {
		log.Fatal("a CSRF key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (sessions won't survive restart). Set GYMDESK_CSRF_KEY for production.")
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// Global workout runner registry (set by NewMux)
var workouts *engine.Registry

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// NewMux wires HTTP handlers for the app.
func NewMux(opts Options, s *Stores, registry *engine.Registry, collector *perf.Collector) http.Handler {
	stores = s
	workouts = registry
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = opts.Production

	mux := http.NewServeMux()
	if opts.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(opts.StaticDir)))
	}
	registerRoutes(mux)

	// CSRF key: 32-byte hex-encoded secret from config
	csrfKey := loadCSRFKey(opts.CSRFKeyHex, opts.Production)

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> Auth -> CSRF -> SecurityHeaders -> RateLimit -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}
