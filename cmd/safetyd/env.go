package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

const envPrefix = "SAFETYD_"

// envName maps a flag name to its environment key: db-path -> SAFETYD_DB_PATH.
func envName(flagName string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// applyEnvFile sets every flag not given on the command line from the
// matching SAFETYD_* key in the env file at path.
func applyEnvFile(fs *flag.FlagSet, path string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	var errs []string
	fs.VisitAll(func(f *flag.Flag) {
		if explicit[f.Name] {
			return
		}
		v, ok := values[envName(f.Name)]
		if !ok {
			return
		}
		if err := fs.Set(f.Name, v); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", envName(f.Name), err))
		}
	})
	if len(errs) > 0 {
		return fmt.Errorf("invalid env file %s: %s", path, strings.Join(errs, "; "))
	}
	return nil
}
