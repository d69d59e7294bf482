package utils

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/customer-intake-backend/internal/crashtracker"
	"github.com/stellar/customer-intake-backend/internal/monitor"
)

// assignConfigKey stores v in the option's ConfigKey, which must be a *T.
func assignConfigKey[T any](co *config.ConfigOption, v T) error {
	key, ok := co.ConfigKey.(*T)
	if !ok {
		return fmt.Errorf("config key of %s should be a %T, got %T", co.Name, key, co.ConfigKey)
	}
	*key = v
	return nil
}

// parsedSetter builds a CustomSetValue that runs the raw value through parse. what names the value in errors.
func parsedSetter[T any](what string, parse func(string) (T, error)) func(*config.ConfigOption) error {
	return func(co *config.ConfigOption) error {
		v, err := parse(viper.GetString(co.Name))
		if err != nil {
			return fmt.Errorf("couldn't parse %s: %w", what, err)
		}
		return assignConfigKey(co, v)
	}
}

var (
	SetConfigOptionMetricType       = parsedSetter("metric type", monitor.ParseMetricType)
	SetConfigOptionCrashTrackerType = parsedSetter("crash tracker type", crashtracker.ParseCrashTrackerType)
)

// SetConfigOptionLogLevel parses the level and applies it to the default logger when it was set explicitly.
func SetConfigOptionLogLevel(co *config.ConfigOption) error {
	if err := parsedSetter("log level", logrus.ParseLevel)(co); err != nil {
		return err
	}

	level := *(co.ConfigKey.(*logrus.Level))
	if !config.IsExplicitlySet(co) {
		log.Debugf("Using default log level: %q", level)
		return nil
	}
	log.Debugf("Setting log level to: %q", level)
	log.DefaultLogger.SetLevel(level)
	return nil
}

// SetCorsAllowedOrigins reads a comma separated list of origins.
func SetCorsAllowedOrigins(co *config.ConfigOption) error {
	raw := viper.GetString(co.Name)
	if raw == "" {
		return fmt.Errorf("cors allowed addresses cannot be empty")
	}

	origins := strings.Split(raw, ",")
	for _, origin := range origins {
		if _, err := url.ParseRequestURI(origin); err != nil {
			return fmt.Errorf("error parsing cors addresses: %w", err)
		}
		if origin == "*" {
			log.Warn(`The value "*" for the CORS Allowed Origins is too permissive and not recommended.`)
		}
	}

	return assignConfigKey(co, origins)
}

// SetConfigOptionURLString requires an absolute http(s) URL.
func SetConfigOptionURLString(co *config.ConfigOption) error {
	u := viper.GetString(co.Name)
	if u == "" {
		return fmt.Errorf("%s cannot be empty", co.Name)
	}
	return setHTTPURL(co, u)
}

// SetConfigOptionOptionalURLString is SetConfigOptionURLString that also accepts an empty value.
func SetConfigOptionOptionalURLString(co *config.ConfigOption) error {
	u := viper.GetString(co.Name)
	if u == "" {
		return nil
	}
	return setHTTPURL(co, u)
}

func setHTTPURL(co *config.ConfigOption, u string) error {
	parsed, err := url.ParseRequestURI(u)
	if err != nil {
		return fmt.Errorf("error parsing %s: %w", co.Name, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", co.Name, parsed.Scheme)
	}
	return assignConfigKey(co, u)
}
