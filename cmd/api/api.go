package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-co-op/gocron"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"storefront/docs" //this is required to generate swagger docs
	"storefront/internal/events"
	"storefront/internal/inventory"
	"storefront/internal/mailer"
	"storefront/internal/methods"
	"storefront/internal/metrics"
	"storefront/internal/orders"
	"storefront/internal/payments"
	"storefront/internal/poller"
	"storefront/internal/ratelimiter"
	"storefront/internal/session"
	"storefront/internal/setup"
	"storefront/internal/store"
	"storefront/internal/webhooks"
)

type application struct {
	config      config
	store       store.Storage
	logger      *zap.SugaredLogger
	catalog     *inventory.Catalog
	registry    *methods.Registry
	payments    *payments.Client
	poller      *poller.Poller
	sessions    *session.Manager
	orders      *orders.NumberGenerator
	seeder      *setup.Seeder
	events      *events.Bus
	webhooks    *webhooks.Processor
	mailer      mailer.Client
	metrics     metrics.Recorder
	promHandler http.Handler
	rateLimiter ratelimiter.Limiter
	scheduler   *gocron.Scheduler
}

type config struct {
	addr        string
	env         string
	apiURL      string
	frontendURL string
	provider    string
	sentryDSN   string
	db          dbConfig
	stripe      stripeConfig
	store       storeConfig
	mail        mailConfig
	auth        authConfig
	rateLimiter ratelimiter.Config
	reconcile   reconcileConfig
	statusWait  time.Duration
}

type stripeConfig struct {
	secretKey      string
	publishableKey string
	webhookSecret  string
	accountCountry string
}

type storeConfig struct {
	name           string
	country        string
	currency       string
	paymentMethods []string
	catalogFile    string
	cloudinaryURL  string
	orderSecret    string
}

type authConfig struct {
	basic   basicConfig
	session sessionConfig
}

type sessionConfig struct {
	secret string
	exp    time.Duration
	iss    string
}

// basicConfig guards the admin routes. pass is a bcrypt hash.
type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type reconcileConfig struct {
	interval   time.Duration
	staleAfter time.Duration
	batch      int
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", sessionHeader},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", app.healthCheckHandler)
	r.Handle("/metrics", app.promHandler)
	docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.apiURL)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

	// signed by the provider, so outside the rate limiter
	r.Post("/webhook", app.webhookHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.BasicAuthMiddleware())
		r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.Get("/admin/intents", app.listIntentsHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(app.RateLimiterMiddleware)

		r.Get("/config", app.getConfigHandler)
		r.Get("/payment_methods", app.getPaymentMethodsHandler)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", app.listProductsHandler)
			r.Get("/{productID}", app.getProductHandler)
			r.Get("/{productID}/skus", app.getProductSKUsHandler)
		})

		r.Route("/payment_intents", func(r chi.Router) {
			r.Post("/", app.createPaymentIntentHandler)
			r.Route("/{intentID}", func(r chi.Router) {
				r.Use(app.SessionIntentMiddleware)
				r.Post("/shipping_change", app.shippingChangeHandler)
				r.Post("/update_currency", app.updateCurrencyHandler)
				r.Post("/confirm", app.confirmPaymentIntentHandler)
				r.Get("/status", app.paymentIntentStatusHandler)
			})
		})
	})

	return r
}

func (app *application) allowedOrigins() []string {
	if app.config.frontendURL != "" {
		return []string{app.config.frontendURL}
	}
	return []string{"https://*", "http://*"}
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 45,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	if app.scheduler != nil {
		app.scheduler.StartAsync()
	}

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env, "provider", app.config.provider)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.close()
	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}

// close stops background work and drains pending event handlers.
func (app *application) close() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if stopper, ok := app.rateLimiter.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	app.events.Wait()
	sentry.Flush(2 * time.Second)
}
