package cmd

import (
	"go/types"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	cmdUtils "github.com/stellar/customer-intake-backend/cmd/utils"
	"github.com/stellar/customer-intake-backend/internal/crashtracker"
	"github.com/stellar/customer-intake-backend/internal/monitor"
	"github.com/stellar/customer-intake-backend/internal/serve"
)

type ServeCommand struct{}

type ServerServiceInterface interface {
	StartServe(opts serve.ServeOptions, httpServer serve.HTTPServerInterface)
	StartMetricsServe(opts serve.MetricsServeOptions, httpServer serve.HTTPServerInterface)
}

type ServerService struct{}

// Making sure that ServerService implements ServerServiceInterface
var _ ServerServiceInterface = (*ServerService)(nil)

func (s *ServerService) StartServe(opts serve.ServeOptions, httpServer serve.HTTPServerInterface) {
	err := serve.Serve(opts, httpServer)
	if err != nil {
		log.Fatalf("Error starting server: %s", err.Error())
	}
}

func (s *ServerService) StartMetricsServe(opts serve.MetricsServeOptions, httpServer serve.HTTPServerInterface) {
	err := serve.MetricsServe(opts, httpServer)
	if err != nil {
		log.Fatalf("Error starting metrics server: %s", err.Error())
	}
}

func (c *ServeCommand) Command(serverService ServerServiceInterface, monitorService monitor.MonitorServiceInterface) *cobra.Command {
	serveOpts := serve.ServeOptions{}
	var maxRequestBodyBytes int

	configOpts := config.ConfigOptions{
		{
			Name:        "port",
			Usage:       "Port where the server will be listening on",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.Port,
			FlagDefault: 8000,
			Required:    true,
		},
		{
			Name:           "cors-allowed-origins",
			Usage:          `Cors URLs that are allowed to access the endpoints, separated by ","`,
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetCorsAllowedOrigins,
			ConfigKey:      &serveOpts.CorsAllowedOrigins,
			Required:       true,
		},
		{
			Name:        "rate-limit-per-minute",
			Usage:       "Maximum intake session starts and submissions per client IP per minute. Zero disables the limit.",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.RateLimitPerMinute,
			FlagDefault: 60,
			Required:    false,
		},
		{
			Name:        "max-request-body-bytes",
			Usage:       "Maximum size in bytes of a request body",
			OptType:     types.Int,
			ConfigKey:   &maxRequestBodyBytes,
			FlagDefault: serve.DefaultMaxRequestBodyBytes,
			Required:    false,
		},
	}

	intakeOptions := cmdUtils.IntakeOptions{}
	configOpts = append(configOpts, cmdUtils.IntakeConfigOptions(&intakeOptions)...)

	dbPoolOptions := cmdUtils.DBPoolOptions{}
	configOpts = append(configOpts, cmdUtils.DBPoolConfigOptions(&dbPoolOptions)...)

	crashTrackerOptions := crashtracker.CrashTrackerOptions{}
	configOpts = append(configOpts, cmdUtils.CrashTrackerTypeConfigOption(&crashTrackerOptions.CrashTrackerType))

	metricsServeOpts := serve.MetricsServeOptions{}
	configOpts = append(configOpts,
		&config.ConfigOption{
			Name:           "metrics-type",
			Usage:          `Metric monitor type. Options: "PROMETHEUS"`,
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionMetricType,
			ConfigKey:      &metricsServeOpts.MetricType,
			FlagDefault:    "PROMETHEUS",
			Required:       true,
		},
		&config.ConfigOption{
			Name:        "metrics-port",
			Usage:       "Port where the metrics server will be listening on",
			OptType:     types.Int,
			ConfigKey:   &metricsServeOpts.Port,
			FlagDefault: 8002,
			Required:    true,
		})

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Customer Intake API",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmdUtils.PropagatePersistentPreRun(cmd, args)

			configOpts.Require()
			err := configOpts.SetValues()
			if err != nil {
				log.Fatalf("Error setting values of config options: %s", err.Error())
			}

			metricOptions := monitor.MetricOptions{
				MetricType:  metricsServeOpts.MetricType,
				Environment: globalOptions.Environment,
			}

			err = monitorService.Start(metricOptions)
			if err != nil {
				log.Fatalf("Error creating monitor service: %s", err.Error())
			}

			globalOptions.PopulateCrashTrackerOptions(&crashTrackerOptions)

			serveOpts.Environment = globalOptions.Environment
			serveOpts.GitCommit = globalOptions.GitCommit
			serveOpts.DatabaseDSN = globalOptions.DatabaseURL
			serveOpts.Version = globalOptions.Version
			serveOpts.MonitorService = monitorService
			serveOpts.DBPoolConfig = dbPoolOptions.PoolConfig()
			serveOpts.MaxRequestBodyBytes = int64(maxRequestBodyBytes)
			serveOpts.IntakeContactStep = intakeOptions.ContactStep
			serveOpts.SessionTTL = intakeOptions.SessionTTL()
			serveOpts.MaxSessions = intakeOptions.MaxSessions
			serveOpts.CustomerAPIURL = intakeOptions.CustomerAPIURL

			metricsServeOpts.MonitorService = monitorService
			metricsServeOpts.Environment = globalOptions.Environment
		},
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()

			crashTrackerClient, err := crashtracker.GetClient(ctx, crashTrackerOptions)
			if err != nil {
				log.Ctx(ctx).Fatalf("error creating crash tracker client: %s", err.Error())
			}
			serveOpts.CrashTrackerClient = crashTrackerClient

			// Starting Metrics Server (background job)
			log.Ctx(ctx).Info("Starting Metrics Server...")
			go serverService.StartMetricsServe(metricsServeOpts, &serve.HTTPServer{})

			// Starting Application Server
			log.Ctx(ctx).Info("Starting Application Server...")
			serverService.StartServe(serveOpts, &serve.HTTPServer{})
		},
	}
	err := configOpts.Init(cmd)
	if err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}
