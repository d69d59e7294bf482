package utils

import (
	"go/types"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar/customer-intake-backend/internal/crashtracker"
	"github.com/stellar/customer-intake-backend/internal/monitor"
)

type setterCase[T any] struct {
	name    string
	args    []string
	env     string
	wantErr string
	want    T
}

// runSetter resolves a single option through a throwaway cobra command, the same way the CLI does.
func runSetter[T any](t *testing.T, co config.ConfigOption, tc setterCase[T]) {
	t.Helper()
	ClearTestEnvironment(t)

	var zero T
	*(co.ConfigKey.(*T)) = zero
	if tc.env != "" {
		t.Setenv(strings.ReplaceAll(strings.ToUpper(co.Name), "-", "_"), tc.env)
	}

	cmd := cobra.Command{
		RunE: func(*cobra.Command, []string) error {
			co.Require()
			return co.SetValue()
		},
	}
	cmd.SetOut(new(strings.Builder))
	require.NoError(t, co.Init(&cmd))

	args := tc.args
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()

	if tc.wantErr != "" {
		require.ErrorContains(t, err, tc.wantErr)
		return
	}
	require.NoError(t, err)
	assert.Equal(t, tc.want, *(co.ConfigKey.(*T)))
}

func Test_SetConfigOptionLogLevel(t *testing.T) {
	var level logrus.Level
	co := config.ConfigOption{Name: "log-level", OptType: types.String, CustomSetValue: SetConfigOptionLogLevel, ConfigKey: &level}

	for _, tc := range []setterCase[logrus.Level]{
		{name: "empty", wantErr: `couldn't parse log level: not a valid logrus Level: ""`},
		{name: "unknown", args: []string{"--log-level", "loud"}, wantErr: `not a valid logrus Level: "loud"`},
		{name: "flag", args: []string{"--log-level", "TRACE"}, want: logrus.TraceLevel},
		{name: "mixed case flag", args: []string{"--log-level", "iNfO"}, want: logrus.InfoLevel},
		{name: "env", env: "WARN", want: logrus.WarnLevel},
	} {
		t.Run(tc.name, func(t *testing.T) { runSetter(t, co, tc) })
	}
}

func Test_SetConfigOptionMetricType(t *testing.T) {
	var metricType monitor.MetricType
	co := config.ConfigOption{Name: "metrics-type", OptType: types.String, CustomSetValue: SetConfigOptionMetricType, ConfigKey: &metricType}

	for _, tc := range []setterCase[monitor.MetricType]{
		{name: "empty", wantErr: `couldn't parse metric type: invalid metric type ""`},
		{name: "unknown", args: []string{"--metrics-type", "statsd"}, wantErr: `invalid metric type "STATSD"`},
		{name: "flag", args: []string{"--metrics-type", "prometheus"}, want: monitor.MetricTypePrometheus},
		{name: "env", env: "PROMETHEUS", want: monitor.MetricTypePrometheus},
	} {
		t.Run(tc.name, func(t *testing.T) { runSetter(t, co, tc) })
	}
}

func Test_SetConfigOptionCrashTrackerType(t *testing.T) {
	var ctType crashtracker.CrashTrackerType
	co := config.ConfigOption{Name: "crash-tracker-type", OptType: types.String, CustomSetValue: SetConfigOptionCrashTrackerType, ConfigKey: &ctType}

	for _, tc := range []setterCase[crashtracker.CrashTrackerType]{
		{name: "empty", wantErr: `couldn't parse crash tracker type: invalid crash tracker type ""`},
		{name: "unknown", args: []string{"--crash-tracker-type", "bugsnag"}, wantErr: `invalid crash tracker type "BUGSNAG"`},
		{name: "mixed case flag", args: []string{"--crash-tracker-type", "SeNtRy"}, want: crashtracker.CrashTrackerTypeSentry},
		{name: "env", env: "DRY_RUN", want: crashtracker.CrashTrackerTypeDryRun},
	} {
		t.Run(tc.name, func(t *testing.T) { runSetter(t, co, tc) })
	}
}

func Test_SetCorsAllowedOrigins(t *testing.T) {
	var origins []string
	co := config.ConfigOption{Name: "cors-allowed-origins", OptType: types.String, CustomSetValue: SetCorsAllowedOrigins, ConfigKey: &origins}

	getEntries := log.DefaultLogger.StartTest(log.WarnLevel)
	for _, tc := range []setterCase[[]string]{
		{name: "empty", args: []string{"--cors-allowed-origins", ""}, wantErr: "cors allowed addresses cannot be empty"},
		{name: "only separators", args: []string{"--cors-allowed-origins", ","}, wantErr: `error parsing cors addresses: parse ""`},
		{
			name: "two origins",
			args: []string{"--cors-allowed-origins", "https://intake.test,https://admin.intake.test"},
			want: []string{"https://intake.test", "https://admin.intake.test"},
		},
		{name: "env", env: "https://intake.test", want: []string{"https://intake.test"}},
		{name: "wildcard", env: "*", want: []string{"*"}},
	} {
		t.Run(tc.name, func(t *testing.T) { runSetter(t, co, tc) })
	}

	entries := getEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, `The value "*" for the CORS Allowed Origins is too permissive and not recommended.`, entries[0].Message)
}

func Test_SetConfigOptionURLString(t *testing.T) {
	var baseURL string
	co := config.ConfigOption{
		Name:           "base-url",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionURLString,
		ConfigKey:      &baseURL,
		FlagDefault:    "http://localhost:8000",
	}

	for _, tc := range []setterCase[string]{
		{name: "empty", args: []string{"--base-url", ""}, wantErr: "base-url cannot be empty"},
		{name: "relative", args: []string{"--base-url", "intake.test"}, wantErr: "error parsing base-url"},
		{name: "ftp", args: []string{"--base-url", "ftp://intake.test"}, wantErr: `base-url must use http or https, got "ftp"`},
		{name: "flag", args: []string{"--base-url", "https://intake.test"}, want: "https://intake.test"},
		{name: "env", env: "https://intake.test", want: "https://intake.test"},
		{name: "default", want: "http://localhost:8000"},
	} {
		t.Run(tc.name, func(t *testing.T) { runSetter(t, co, tc) })
	}
}

func Test_SetConfigOptionOptionalURLString(t *testing.T) {
	var customerAPIURL string
	co := config.ConfigOption{
		Name:           "customer-api-url",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionOptionalURLString,
		ConfigKey:      &customerAPIURL,
	}

	for _, tc := range []setterCase[string]{
		{name: "unset"},
		{name: "relative", args: []string{"--customer-api-url", "customers.internal"}, wantErr: "error parsing customer-api-url"},
		{name: "env", env: "http://customers.internal:8000", want: "http://customers.internal:8000"},
	} {
		t.Run(tc.name, func(t *testing.T) { runSetter(t, co, tc) })
	}
}

func Test_assignConfigKey_wrongType(t *testing.T) {
	var n int
	err := assignConfigKey(&config.ConfigOption{Name: "port", ConfigKey: &n}, "8000")
	assert.EqualError(t, err, "config key of port should be a *string, got *int")
}
