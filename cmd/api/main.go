package main

import (
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/inventory"
	"storefront/internal/mailer"
	"storefront/internal/methods"
	"storefront/internal/metrics"
	"storefront/internal/orders"
	"storefront/internal/payments"
	"storefront/internal/payments/sandbox"
	"storefront/internal/poller"
	"storefront/internal/ratelimiter"
	"storefront/internal/session"
	"storefront/internal/setup"
	"storefront/internal/store"
	"storefront/internal/webhooks"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	return ratelimiter.Config{
		RequestsPerTimeFrame: getInt("RATELIMITER_REQUESTS_COUNT", 200),
		TimeFrame:            5 * time.Second,
		Enabled:              getBool("RATE_LIMITER_ENABLED", false),
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	// Configure the encoder to be a console encoder with color
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	logger := zap.New(core)

	return logger.Sugar(), nil
}

var version = "0.3.0"

//	@title			Storefront Payments API
//	@description	Checkout for the storefront: eligible payment methods, payment intents, confirmation flows and provider webhooks.

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath					/
//	@securityDefinitions.basic	BasicAuth

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config{
		addr:        getString("ADDR", ":8080"),
		env:         getString("ENV", "development"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		apiURL:      getString("EXTERNAL_URL", "localhost:8080"),
		provider:    getString("PAYMENTS_PROVIDER", "stripe"),
		sentryDSN:   os.Getenv("SENTRY_DSN"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    int32(getInt("DB_MAX_OPEN_CONNS", 10)),
			maxIdleTime: getString("DB_MAX_IDLE_TIME", "15m"),
		},
		stripe: stripeConfig{
			secretKey:      os.Getenv("STRIPE_SECRET_KEY"),
			publishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
			webhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
			accountCountry: strings.ToUpper(getString("STRIPE_ACCOUNT_COUNTRY", "US")),
		},
		store: storeConfig{
			name:           getString("STORE_NAME", mailer.FromName),
			country:        strings.ToUpper(getString("STORE_COUNTRY", "US")),
			currency:       strings.ToLower(getString("STORE_CURRENCY", "eur")),
			paymentMethods: getList("PAYMENT_METHODS", defaultPaymentMethods),
			catalogFile:    os.Getenv("CATALOG_FILE"),
			cloudinaryURL:  os.Getenv("CLOUDINARY_URL"),
			orderSecret:    getString("ORDER_NUMBER_SECRET", "storefront"),
		},
		mail: mailConfig{
			host:      os.Getenv("SMTP_HOST"),
			port:      getInt("SMTP_PORT", 587),
			username:  os.Getenv("SMTP_USERNAME"),
			password:  os.Getenv("SMTP_PASSWORD"),
			fromEmail: getString("MAIL_FROM_EMAIL", "receipts@storefront.local"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS_HASH"),
			},
			session: sessionConfig{
				secret: os.Getenv("SESSION_TOKEN_SECRET"),
				exp:    getDuration("SESSION_TOKEN_EXP", session.DefaultTTL),
				iss:    "storefront",
			},
		},
		rateLimiter: LoadRateLimiterConfig(),
		reconcile: reconcileConfig{
			interval:   getDuration("RECONCILE_INTERVAL", 5*time.Minute),
			staleAfter: getDuration("RECONCILE_STALE_AFTER", 10*time.Minute),
			batch:      getInt("RECONCILE_BATCH", 50),
		},
		statusWait: getDuration("STATUS_WAIT_TIMEOUT", poller.DefaultTimeout),
	}

	// Logger
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	if cfg.sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.sentryDSN,
			Environment: cfg.env,
			Release:     "storefront@" + version,
		})
		if err != nil {
			logger.Fatal(err)
		}
	}

	if cfg.auth.session.secret == "" {
		if cfg.env == "production" {
			logger.Fatal("SESSION_TOKEN_SECRET is required in production")
		}
		cfg.auth.session.secret = uuid.NewString()
		logger.Warnw("SESSION_TOKEN_SECRET not set, using a random secret; sessions end on restart")
	}

	// Storage
	var st store.Storage
	if cfg.db.addr != "" {
		pool, err := db.New(cfg.db.addr, cfg.db.maxConns, cfg.db.maxIdleTime)
		if err != nil {
			logger.Fatal(err)
		}
		if err := db.Migrate(pool); err != nil {
			logger.Fatal(err)
		}
		logger.Info("database connection pool established")

		expvar.Publish("database", expvar.Func(func() any {
			s := pool.Stat()
			return map[string]int64{
				"total_conns":    int64(s.TotalConns()),
				"idle_conns":     int64(s.IdleConns()),
				"acquired_conns": int64(s.AcquiredConns()),
				"acquire_count":  s.AcquireCount(),
			}
		}))
		st = store.NewPostgres(pool)
	} else {
		logger.Warn("DB_ADDR not set, payment intents are kept in memory")
		st = store.NewMemory()
	}
	defer st.Close()

	// Payment provider
	var (
		provider  payments.Provider
		publisher setup.Publisher
	)
	switch cfg.provider {
	case "sandbox":
		sb := sandbox.New()
		provider, publisher = sb, sb
	case "stripe":
		if cfg.stripe.secretKey == "" {
			logger.Fatal("STRIPE_SECRET_KEY is required unless PAYMENTS_PROVIDER=sandbox")
		}
		sp := payments.NewStripeProvider(cfg.stripe.secretKey)
		provider, publisher = sp, setup.NewStripePublisher(sp.API())
	default:
		logger.Fatalf("unknown PAYMENTS_PROVIDER %q", cfg.provider)
	}

	// Catalog
	catalog, err := loadCatalog(cfg.store)
	if err != nil {
		logger.Fatal(err)
	}

	orderNumbers, err := orders.NewNumberGenerator(cfg.store.orderSecret)
	if err != nil {
		logger.Fatal(err)
	}

	// client to send receipts
	var mail mailer.Client = mailer.Noop{}
	if cfg.mail.host != "" {
		mail = mailer.NewSMTPMailer(cfg.mail.host, cfg.mail.port, cfg.mail.username, cfg.mail.password, cfg.mail.fromEmail)
	}

	recorder := metrics.NewPrometheusRecorder()
	bus := events.New()
	paymentsClient := payments.NewClient(provider, st,
		payments.WithLogger(logger),
		payments.WithMetrics(recorder),
		payments.WithNotifier(bus),
	)

	processor := webhooks.NewProcessor(paymentsClient, st, cfg.stripe.webhookSecret, logger, recorder)
	if !processor.Verifies() {
		if cfg.env == "production" {
			logger.Fatal("STRIPE_WEBHOOK_SECRET is required in production")
		}
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, webhook signatures are not verified")
	}

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	app := &application{
		config:      cfg,
		logger:      logger,
		store:       st,
		catalog:     catalog,
		registry:    methods.Default(),
		payments:    paymentsClient,
		poller:      poller.New(paymentsClient, poller.Config{Timeout: cfg.statusWait, Logger: logger}),
		sessions:    session.NewManager(cfg.auth.session.secret, cfg.auth.session.iss, cfg.auth.session.exp),
		orders:      orderNumbers,
		seeder:      setup.NewSeeder(publisher, catalog, cfg.store.currency, logger),
		events:      bus,
		webhooks:    processor,
		mailer:      mail,
		metrics:     recorder,
		promHandler: recorder.Handler(),
		rateLimiter: rateLimiter,
	}

	if err := app.subscribe(); err != nil {
		logger.Fatal(err)
	}

	if cfg.reconcile.interval > 0 {
		app.scheduler, err = app.newReconciler()
		if err != nil {
			logger.Fatal(err)
		}
	}

	//Metrics collected http://localhost:8080/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}

var defaultPaymentMethods = []string{
	"alipay", "bancontact", "card", "eps", "ideal", "giropay", "multibanco", "p24", "sepa_debit", "sofort", "wechat",
}

func loadCatalog(cfg storeConfig) (*inventory.Catalog, error) {
	var (
		catalog *inventory.Catalog
		err     error
	)
	if cfg.catalogFile != "" {
		catalog, err = inventory.LoadFile(cfg.catalogFile)
	} else {
		catalog, err = inventory.Default()
	}
	if err != nil {
		return nil, err
	}

	if cfg.cloudinaryURL == "" {
		return catalog.WithImages(inventory.StaticImages{}), nil
	}
	images, err := inventory.NewCloudinaryImages(cfg.cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return catalog.WithImages(images), nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %d\n", key, fallback)
		return fallback
	}
	return parsed
}

func getBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %t\n", key, fallback)
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %s\n", key, fallback)
		return fallback
	}
	return parsed
}

// getList reads a comma separated, case-insensitive list.
func getList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
