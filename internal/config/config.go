package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config controls how an artifact is attributed. A Config is never
// modified once an analysis has started.
type Config struct {
	// RawSymbols shows linkage names instead of demangled names.
	RawSymbols bool
	// FilesOnly stops attribution at file granularity.
	FilesOnly bool
	// RetainDebugSections keeps debug sections in the output.
	RetainDebugSections bool
	// CompilationUnits adds the compilation unit name as a key segment.
	CompilationUnits bool
	// SplitPaths emits one key segment per path component.
	SplitPaths bool
	// ExclusiveSizes subtracts nested function sizes from their parent.
	ExclusiveSizes bool
	// Jobs bounds how many compilation units are walked concurrently.
	Jobs int
}

// Environment variables consulted by Load.
const (
	EnvRawSymbols        = "WASMPHOBIA_RAW_SYMBOLS"
	EnvFilesOnly         = "WASMPHOBIA_FILES_ONLY"
	EnvShowDebugSections = "WASMPHOBIA_SHOW_DEBUG_SECTIONS"
	EnvCompilationUnits  = "WASMPHOBIA_COMPILATION_UNITS"
	EnvSplitPaths        = "WASMPHOBIA_SPLIT_PATHS"
	EnvExclusiveSizes    = "WASMPHOBIA_EXCLUSIVE_SIZES"
	EnvJobs              = "WASMPHOBIA_JOBS"
)

// Load returns the configuration defaults taken from the environment and
// an optional .env file in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		RawSymbols:          envBool(EnvRawSymbols, false),
		FilesOnly:           envBool(EnvFilesOnly, false),
		RetainDebugSections: envBool(EnvShowDebugSections, false),
		CompilationUnits:    envBool(EnvCompilationUnits, false),
		SplitPaths:          envBool(EnvSplitPaths, true),
		ExclusiveSizes:      envBool(EnvExclusiveSizes, false),
		Jobs:                envInt(EnvJobs, runtime.GOMAXPROCS(0)),
	}
}

// Workers returns the effective number of concurrent unit walks.
func (c *Config) Workers() int {
	if c.Jobs < 1 {
		return 1
	}
	return c.Jobs
}

// Env returns the trimmed value of key or def when it is unset.
func Env(key, def string) string {
	return firstNonEmpty(strings.TrimSpace(os.Getenv(key)), def)
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
