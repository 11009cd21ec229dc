package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"stego-server/internal/logging"
	"stego-server/internal/memory"
	"stego-server/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogStaticFiles  bool
	LogHealthChecks bool

	DataDir     string
	TempDir     string
	ResultsDir  string
	DatabaseDir string
	CarrierDir  string
	StaticDir   string

	VideoCarrier     string
	VideoWidth       int
	VideoHeight      int
	StageTimeout     time.Duration
	VideoWorkers     int
	SweepMaxAge      time.Duration
	MaxUploadBytes   int64
	GenerateCarriers bool
	FFmpegPath       string
	FFprobePath      string

	AuthRequired    bool
	SessionDuration time.Duration

	GeminiAPIKey string
	GeminiModel  string

	// Derived paths
	DatabasePath string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	dataDir := getEnv("DATA_DIR", "/data")
	carrierDir := getEnv("CARRIER_DIR", "/carriers")

	config := &Config{
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		LogStaticFiles:  getEnvBool("LOG_STATIC_FILES", false),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", true),

		DataDir:     dataDir,
		TempDir:     getEnv("TEMP_DIR", filepath.Join(dataDir, "tmp")),
		ResultsDir:  getEnv("RESULTS_DIR", filepath.Join(dataDir, "results")),
		DatabaseDir: getEnv("DATABASE_DIR", filepath.Join(dataDir, "db")),
		CarrierDir:  carrierDir,
		StaticDir:   getEnv("STATIC_DIR", "./static"),

		VideoCarrier:     getEnv("VIDEO_CARRIER", filepath.Join(carrierDir, "carrier.mp4")),
		VideoWidth:       getEnvInt("VIDEO_WIDTH", 1280),
		VideoHeight:      getEnvInt("VIDEO_HEIGHT", 720),
		StageTimeout:     getEnvDuration("STAGE_TIMEOUT", 10*time.Minute),
		VideoWorkers:     workers.ForCPU(4),
		SweepMaxAge:      getEnvDuration("SWEEP_MAX_AGE", 2*time.Hour),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 512)) << 20,
		GenerateCarriers: getEnvBool("GENERATE_CARRIERS", true),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:      getEnv("FFPROBE_PATH", "ffprobe"),

		AuthRequired:    getEnvBool("AUTH_REQUIRED", true),
		SessionDuration: getEnvDuration("SESSION_DURATION", 7*24*time.Hour),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-pro"),
	}

	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  DATA_DIR:            %s", config.DataDir)
	logging.Info("  TEMP_DIR:            %s", config.TempDir)
	logging.Info("  RESULTS_DIR:         %s", config.ResultsDir)
	logging.Info("  DATABASE_DIR:        %s", config.DatabaseDir)
	logging.Info("  CARRIER_DIR:         %s", config.CarrierDir)
	logging.Info("  STATIC_DIR:          %s", config.StaticDir)
	logging.Info("  VIDEO_CARRIER:       %s (%dx%d)", config.VideoCarrier, config.VideoWidth, config.VideoHeight)
	logging.Info("  STAGE_TIMEOUT:       %v", config.StageTimeout)
	logging.Info("  VIDEO_WORKERS:       %d", config.VideoWorkers)
	logging.Info("  SWEEP_MAX_AGE:       %v", config.SweepMaxAge)
	logging.Info("  MAX_UPLOAD_MB:       %d", config.MaxUploadBytes>>20)
	logging.Info("  GENERATE_CARRIERS:   %v", config.GenerateCarriers)
	logging.Info("  AUTH_REQUIRED:       %v", config.AuthRequired)
	logging.Info("  SESSION_DURATION:    %v", config.SessionDuration)
	logging.Info("  GEMINI_API_KEY:      %s", setString(config.GeminiAPIKey != ""))
	logging.Info("  GEMINI_MODEL:        %s", config.GeminiModel)
	logging.Info("  LOG_STATIC_FILES:    %v", config.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if config.VideoWidth <= 0 || config.VideoHeight <= 0 {
		return nil, fmt.Errorf("VIDEO_WIDTH and VIDEO_HEIGHT must be positive, got %dx%d", config.VideoWidth, config.VideoHeight)
	}
	if config.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	required := []struct {
		path *string
		name string
	}{
		{&config.TempDir, "temp"},
		{&config.ResultsDir, "results"},
		{&config.DatabaseDir, "database"},
		{&config.CarrierDir, "carrier"},
	}
	for _, dir := range required {
		abs, err := filepath.Abs(*dir.path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s directory path: %w", dir.name, err)
		}
		*dir.path = abs
		logging.Info("  %s directory (absolute): %s", capitalize(dir.name), abs)

		if err := ensureDirectory(abs, dir.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", dir.name, err)
		}
		// Carriers may be baked into a read-only image.
		if dir.name == "carrier" && !config.GenerateCarriers {
			continue
		}
		logging.Debug("  Testing %s directory write access...", dir.name)
		if err := testWriteAccess(abs); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory is writable", capitalize(dir.name))
	}

	config.DatabasePath = filepath.Join(config.DatabaseDir, "stego.db")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Image carriers:  ENABLED")
	logging.Info("    Video carrier:   %s", enabledString(fileExists(config.VideoCarrier)))
	logging.Info("    Speech to text:  %s", enabledString(config.GeminiAPIKey != ""))
	logging.Info("    Authentication:  %s", enabledString(config.AuthRequired))
	logging.Info("    Metrics:         %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func setString(set bool) string {
	if set {
		return "(set)"
	}
	return "(not set)"
}

// LogMemoryConfig logs the memory limit chosen by memory.ConfigureFromEnv
func LogMemoryConfig(result memory.ConfigResult) {
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	switch result.Source {
	case "GOMEMLIMIT":
		logging.Info("  GOMEMLIMIT:      %s (from environment)", memory.FormatBytes(result.GoMemLimit))
	case "MEMORY_LIMIT":
		logging.Info("  Container limit: %s", memory.FormatBytes(result.ContainerLimit))
		logging.Info("  GOMEMLIMIT:      %s (%.0f%%)", memory.FormatBytes(result.GoMemLimit), result.Ratio*100)
	default:
		logging.Info("  GOMEMLIMIT:      not configured (set MEMORY_LIMIT to enable)")
	}
	logging.Info("")
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogCarrierInit logs the still image catalog state
func LogCarrierInit(dir string, total, generated int, err error) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CARRIER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Carrier directory: %s", dir)
	logging.Info("  Catalog size:      %d images", total)
	if generated > 0 {
		logging.Info("  [OK] Generated %d missing carriers", generated)
	}
	if err != nil {
		logging.Warn("  Carrier generation failed: %v", err)
		logging.Warn("  Image encodes needing missing carriers will fail")
	}
}

// LogTranscoderInit logs transcoder initialization and checks ffmpeg and
// ffprobe. It returns false when either is missing.
func LogTranscoderInit(ffmpegPath, ffprobePath string, stageTimeout time.Duration, videoWorkers int) bool {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRANSCODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Stage timeout:   %v", stageTimeout)
	logging.Info("  Video workers:   %d", videoWorkers)

	ok := true
	for _, tool := range []string{ffmpegPath, ffprobePath} {
		if err := checkTool(tool); err != nil {
			logging.Warn("  %s check failed: %v", tool, err)
			ok = false
			continue
		}
		logging.Info("  [OK] %s is available", tool)
	}
	if !ok {
		logging.Warn("  Video encode and decode will fail until ffmpeg and ffprobe are installed")
	}
	return ok
}

// LogVideoCarrier logs whether the video carrier file is present
func LogVideoCarrier(path string, width, height int) bool {
	if !fileExists(path) {
		logging.Warn("  Video carrier %s not found; video encodes will fail", path)
		return false
	}
	logging.Info("  [OK] Video carrier %s (%dx%d)", path, width, height)
	return true
}

// LogTranscriberInit logs the speech to text collaborator
func LogTranscriberInit(enabled bool, model string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SPEECH TO TEXT")
	logging.Info("------------------------------------------------------------")
	if !enabled {
		logging.Warn("  GEMINI_API_KEY not set; audio payloads will be rejected")
		return
	}
	logging.Info("  [OK] Gemini model %s", model)
}

// LogSweep logs a stale workspace sweep
func LogSweep(removed int, err error) {
	if err != nil {
		logging.Warn("Stale workspace sweep: removed %d, errors: %v", removed, err)
		return
	}
	if removed > 0 {
		logging.Info("Stale workspace sweep: removed %d", removed)
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	// Special handling for API routes
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Application:   http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   _____ __
  / ___// /____  ____ _____
  \__ \/ __/ _ \/ __ '/ __ \
 ___/ / /_/  __/ /_/ / /_/ /
/____/\__/\___/\__, /\____/
              /____/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func checkTool(name string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", name)
	}
	logging.Debug("  %s path: %s", name, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", name, err)
	}

	if first, _, _ := strings.Cut(string(output), "\n"); first != "" {
		logging.Debug("  %s version: %s", name, strings.TrimSpace(first))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
