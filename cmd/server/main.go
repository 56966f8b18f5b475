package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	_ "modernc.org/sqlite"

	emailPkg "gymdesk/internal/adapters/email"
	web "gymdesk/internal/adapters/http"
	"gymdesk/internal/adapters/http/perf"
	"gymdesk/internal/adapters/storage"
	accountStore "gymdesk/internal/adapters/storage/account"
	auditStorePkg "gymdesk/internal/adapters/storage/audit"
	exerciseStorePkg "gymdesk/internal/adapters/storage/exercise"
	gymStorePkg "gymdesk/internal/adapters/storage/gym"
	leadStorePkg "gymdesk/internal/adapters/storage/lead"
	memberStorePkg "gymdesk/internal/adapters/storage/member"
	membershipStorePkg "gymdesk/internal/adapters/storage/membership"
	outboxStorePkg "gymdesk/internal/adapters/storage/outbox"
	planStorePkg "gymdesk/internal/adapters/storage/plan"
	sessionStorePkg "gymdesk/internal/adapters/storage/session"
	shopStorePkg "gymdesk/internal/adapters/storage/shop"
	timercachePkg "gymdesk/internal/adapters/storage/timercache"
	trainerStorePkg "gymdesk/internal/adapters/storage/trainer"
	"gymdesk/internal/application/engine"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/config"
	"gymdesk/internal/domain/gym"
	"gymdesk/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// defaultGymID is the tenant created on first boot when demo seeding is off.
const defaultGymID = "gym-main"

func main() {
	configPath := flag.String("config", "gymdesk.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	storage.SetSlowQueryThreshold(cfg.SlowQueryMS)

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	// Health check
	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	// Run database migrations
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	// Create store instances (using timed DB for query instrumentation)
	acctStore := accountStore.NewSQLiteStore(timedDB)
	gymStore := gymStorePkg.NewSQLiteStore(timedDB)
	memberStore := memberStorePkg.NewSQLiteStore(timedDB)
	exerciseStore, err := exerciseStorePkg.NewCachedStore(exerciseStorePkg.NewSQLiteStore(timedDB), 512)
	if err != nil {
		log.Fatalf("failed to create exercise cache: %v", err)
	}
	planStore := planStorePkg.NewSQLiteStore(timedDB)
	membershipStore := membershipStorePkg.NewSQLiteStore(timedDB)
	shopStore := shopStorePkg.NewSQLiteStore(timedDB)
	sessionStore := sessionStorePkg.NewSQLiteStore(timedDB)
	timerCache := timercachePkg.NewSQLiteStore(timedDB)
	outboxStore := outboxStorePkg.NewSQLiteStore(timedDB)

	stores := &web.Stores{
		AccountStore:    acctStore,
		GymStore:        gymStore,
		MemberStore:     memberStore,
		LeadStore:       leadStorePkg.NewSQLiteStore(timedDB),
		TrainerStore:    trainerStorePkg.NewSQLiteStore(timedDB),
		MembershipStore: membershipStore,
		ProductStore:    shopStore,
		OrderStore:      shopStore,
		ExerciseStore:   exerciseStore,
		PlanStore:       planStore,
		AuditStore:      auditStorePkg.NewSQLiteStore(timedDB),
		OutboxStore:     outboxStore,
		SessionStore:    sessionStore,
	}

	ctx := context.Background()

	// Seed: either the full demo dataset or a bare gym + admin account.
	if cfg.SeedDemo {
		seedDeps := orchestrators.SeedDemoDeps{
			GymStore:        gymStore,
			AccountStore:    acctStore,
			MemberStore:     memberStore,
			ExerciseStore:   exerciseStore,
			PlanStore:       planStore,
			MembershipStore: membershipStore,
			ProductStore:    shopStore,
		}
		if err := orchestrators.ExecuteSeedDemo(ctx, seedDeps); err != nil {
			log.Fatalf("failed to seed demo data: %v", err)
		}
		log.Println("Demo data seeded")
	} else {
		if _, err := gymStore.GetByID(ctx, defaultGymID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				log.Fatalf("failed to check default gym: %v", err)
			}
			g := gym.Gym{ID: defaultGymID, Name: "GymDesk", Timezone: "UTC", CreatedAt: time.Now()}
			if err := gymStore.Save(ctx, g); err != nil {
				log.Fatalf("failed to create default gym: %v", err)
			}
		}
		adminDeps := orchestrators.CreateAccountDeps{AccountStore: acctStore}
		if err := orchestrators.ExecuteSeedAdmin(ctx, adminDeps, defaultGymID, "admin@gymdesk.example", "ChangeMe+now!"); err != nil {
			log.Fatalf("failed to seed admin: %v", err)
		}
	}

	// Configure email sender
	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.Production() {
			log.Println("WARNING: resend key is not set — email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop — set GYMDESK_RESEND_KEY for real delivery)")
		}
	}

	// Start outbox background worker for retrying queued emails
	executors := map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeEmail: &orchestrators.EmailExecutor{Sender: sender, From: cfg.EmailFrom},
	}
	web.SetOutboxExecutors(executors)
	outboxStopCh := make(chan struct{})
	outboxProcessor := orchestrators.NewOutboxProcessor(outboxStore, executors)
	orchestrators.StartBackgroundWorker(outboxProcessor, 1*time.Minute, outboxStopCh)
	defer close(outboxStopCh)

	// Workout engine: one runner per device, 1-second wall ticks
	registry := engine.NewRegistry(sessionStore, timerCache, engine.RealClock{}, func() engine.Ticker {
		return engine.NewIntervalTicker(time.Second)
	})

	// Create HTTP handler with middleware (pass collector for timing)
	mux := web.NewMux(web.Options{
		StaticDir:  cfg.StaticDir,
		CSRFKeyHex: cfg.CSRFKeyHex,
		Production: cfg.Production(),
	}, stores, registry, collector)

	log.Printf("GymDesk %s starting on %s (env=%s, schema=%d)", version, cfg.Addr, cfg.Env, storage.LatestSchemaVersion())
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
