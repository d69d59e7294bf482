package serve

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	supporthttp "github.com/stellar/go-stellar-sdk/support/http"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/customer-intake-backend/db"
	"github.com/stellar/customer-intake-backend/internal/crashtracker"
	"github.com/stellar/customer-intake-backend/internal/customerapi"
	"github.com/stellar/customer-intake-backend/internal/data"
	"github.com/stellar/customer-intake-backend/internal/intake"
	"github.com/stellar/customer-intake-backend/internal/monitor"
	"github.com/stellar/customer-intake-backend/internal/serve/httpclient"
	"github.com/stellar/customer-intake-backend/internal/serve/httperror"
	"github.com/stellar/customer-intake-backend/internal/serve/httphandler"
	"github.com/stellar/customer-intake-backend/internal/serve/middleware"
	"github.com/stellar/customer-intake-backend/internal/session"
)

const (
	ServiceID = "serve"

	DefaultMaxRequestBodyBytes = 1 << 20
)

type HTTPServerInterface interface {
	Run(conf supporthttp.Config)
}

type HTTPServer struct{}

func (h *HTTPServer) Run(conf supporthttp.Config) {
	supporthttp.Run(conf)
}

type ServeOptions struct {
	Environment        string
	GitCommit          string
	Port               int
	Version            string
	MonitorService     monitor.MonitorServiceInterface
	DatabaseDSN        string
	DBPoolConfig       db.DBPoolConfig
	dbConnectionPool   db.DBConnectionPool
	Models             *data.Models
	CorsAllowedOrigins []string
	CrashTrackerClient crashtracker.CrashTrackerClient
	// IntakeContactStep selects the five step flow. Without it the contact step is skipped.
	IntakeContactStep bool
	SessionTTL        time.Duration
	MaxSessions       int
	// CustomerAPIURL points intake sessions at a remote customer records API. When empty they use the local database.
	CustomerAPIURL      string
	RateLimitPerMinute  int
	MaxRequestBodyBytes int64
	sessions            *session.Store
}

// SetupDependencies uses the serve options to setup the dependencies for the server.
func (opts *ServeOptions) SetupDependencies() error {
	// Setup crash tracker:
	// Call crash tracker FlushEvents to flush buffered events before the server terminates
	defer opts.CrashTrackerClient.FlushEvents(2 * time.Second)
	// Call crash tracker Recover for recover from unhandled panics
	defer opts.CrashTrackerClient.Recover()
	// Set crash tracker LogAndReportErrors as DefaultReportErrorFunc
	httperror.SetDefaultReportErrorFunc(opts.CrashTrackerClient.LogAndReportErrors)

	// Setup Database:
	if opts.dbConnectionPool == nil {
		dbConnectionPool, err := db.OpenDBConnectionPoolWithMetrics(opts.DatabaseDSN, opts.DBPoolConfig, opts.MonitorService)
		if err != nil {
			return fmt.Errorf("error connecting to the database: %w", err)
		}
		opts.dbConnectionPool = dbConnectionPool
	}
	if opts.Models == nil {
		models, err := data.NewModels(opts.dbConnectionPool)
		if err != nil {
			return fmt.Errorf("error creating models for Serve: %w", err)
		}
		opts.Models = models
	}

	// Setup intake sessions:
	gateway, err := opts.customerGateway()
	if err != nil {
		return fmt.Errorf("error creating customer gateway: %w", err)
	}
	opts.sessions, err = session.NewStore(session.StoreOptions{
		Gateway:        gateway,
		Steps:          intake.FlowFor(opts.IntakeContactStep),
		TTL:            opts.SessionTTL,
		MaxEntries:     opts.MaxSessions,
		MonitorService: opts.MonitorService,
	})
	if err != nil {
		return fmt.Errorf("error creating intake session store: %w", err)
	}

	return nil
}

func (opts *ServeOptions) customerGateway() (intake.Gateway, error) {
	if opts.CustomerAPIURL == "" {
		return data.NewCustomerGateway(opts.Models), nil
	}

	log.Infof("Intake sessions use the customer records API at %s", opts.CustomerAPIURL)
	return customerapi.NewClient(customerapi.ClientOptions{
		BaseURL:        opts.CustomerAPIURL,
		HTTPClient:     httpclient.DefaultClient(),
		MonitorService: opts.MonitorService,
	})
}

func Serve(opts ServeOptions, httpServer HTTPServerInterface) error {
	err := opts.SetupDependencies()
	if err != nil {
		return fmt.Errorf("error starting dependencies: %w", err)
	}

	// Start the server
	listenAddr := fmt.Sprintf(":%d", opts.Port)
	serverConfig := supporthttp.Config{
		ListenAddr:          listenAddr,
		Handler:             handleHTTP(opts),
		TCPKeepAlive:        time.Minute * 3,
		ShutdownGracePeriod: time.Second * 50,
		ReadTimeout:         time.Second * 5,
		WriteTimeout:        time.Second * 35,
		IdleTimeout:         time.Minute * 2,
		OnStarting: func() {
			log.Info("Starting Customer Intake Server")
			log.Infof("Listening on %s", listenAddr)
		},
		OnStopping: func() {
			log.Info("Closing the database connection...")
			err := opts.dbConnectionPool.Close()
			if err != nil {
				log.Errorf("error closing database connection: %s", err.Error())
			}

			log.Info("Stopping Customer Intake Server")
		},
	}
	httpServer.Run(serverConfig)
	return nil
}

func handleHTTP(o ServeOptions) *chi.Mux {
	mux := chi.NewMux()

	maxBodyBytes := o.MaxRequestBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxRequestBodyBytes
	}

	// Middleware
	mux.Use(middleware.CorsMiddleware(o.CorsAllowedOrigins))
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(middleware.ObserveRequests(o.MonitorService))
	mux.Use(middleware.RecoverHandler)
	mux.Use(middleware.MaxBodySize(maxBodyBytes))

	mux.Get("/health", httphandler.HealthHandler{
		ReleaseID: o.GitCommit,
		ServiceID: ServiceID,
		Version:   o.Version,
		Checks:    map[string]httphandler.HealthCheck{"database": o.dbConnectionPool.Ping},
	}.ServeHTTP)

	mux.Route("/api/customer", func(r chi.Router) {
		customerHandler := httphandler.CustomerHandler{Customers: o.Models.Customers}
		r.Get("/", customerHandler.GetCustomers)
		r.Post("/", customerHandler.CreateCustomer)
		r.Get("/export", customerHandler.ExportCustomers)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", customerHandler.GetCustomer)
			r.Put("/", customerHandler.UpdateCustomer)
			r.Delete("/", customerHandler.DeleteCustomer)
			r.Patch("/proofs/{index}/status", customerHandler.UpdateProofStatus)
		})
	})

	rateLimiter := middleware.RateLimitByIP(o.RateLimitPerMinute, time.Minute)
	mux.Route("/api/intake", func(r chi.Router) {
		intakeHandler := httphandler.IntakeHandler{Sessions: o.sessions}
		r.With(rateLimiter).Post("/", intakeHandler.StartSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", intakeHandler.GetSession)
			r.Delete("/", intakeHandler.Abandon)
			r.Post("/next", intakeHandler.Next)
			r.Post("/previous", intakeHandler.Previous)
			r.With(rateLimiter).Post("/submit", intakeHandler.Submit)
			r.Route("/steps/{index}", func(r chi.Router) {
				r.Patch("/", intakeHandler.UpdateStep)
				r.Get("/validation", intakeHandler.ValidateStep)
				r.Post("/goto", intakeHandler.GoTo)
			})
		})
	})

	mux.NotFound(func(rw http.ResponseWriter, r *http.Request) {
		httperror.NotFound("", nil, nil).Render(rw)
	})

	return mux
}
