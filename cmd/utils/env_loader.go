package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvFileFlagName is registered on the root command so cobra accepts it. It is read before cobra parses the args.
	EnvFileFlagName = "env-file"
	envFileEnvVar   = "ENV_FILE"
)

// LoadEnvFile loads environment variables from a dotenv file. Variables already set in the environment win.
// The file is taken from --env-file in args, then ENV_FILE, then an optional .env in the working directory.
func LoadEnvFile(args []string) error {
	path := envFilePath(args)
	if path == "" {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading .env file: %w", err)
		}
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func envFilePath(args []string) string {
	path := envFileFlag(args)
	if path == "" {
		path = os.Getenv(envFileEnvVar)
	}
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func envFileFlag(args []string) string {
	flag := "--" + EnvFileFlagName
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
		if value, ok := strings.CutPrefix(arg, flag+"="); ok {
			return value
		}
	}
	return ""
}
