package config // package config loads application configuration from environment variables

import (
    "log"
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"
    glog "github.com/labstack/gommon/log"
)

// Store drivers accepted in STORE_DRIVER.
const (
    StoreMySQL  = "mysql"
    StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env          string        // application environment (e.g. "dev", "prod")
    Port         string        // HTTP port to listen on
    StoreDriver  string        // "mysql" or "memory"
    DBUser       string        // database username
    DBPass       string        // database password (optional)
    DBHost       string        // database host address
    DBPort       string        // database port number
    DBName       string        // database name
    JWTSecret    string        // secret shared with the auth provider
    AccessTTLMin int           // lifetime of tokens minted by cmd/devtoken
    StoreTimeout time.Duration // upper bound for a single purchase's store calls
    RabbitURL    string        // AMQP broker URL; empty disables publishing
    LogDir       string        // directory the purchase consumer writes to
    LogLevel     glog.Lvl      // minimum level for service loggers
    AutoMigrate  bool          // create tables on startup (mysql only)
    RunConsumer  bool          // run the purchase log consumer in-process
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding variables already set in the process environment.
// Missing files are not an error.
func LoadDotEnv(files ...string) {
    if len(files) == 0 {
        files = []string{".env"}
    }
    for _, f := range files {
        if _, err := os.Stat(f); err != nil {
            continue
        }
        if err := godotenv.Load(f); err != nil {
            log.Printf("config: cannot read %s: %v", f, err)
        }
    }
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Database settings
// are only required for the mysql store.
func Load() Config {
    cfg := Config{
        Env:          getenv("APP_ENV", "dev"),
        Port:         getenv("APP_PORT", "8080"),
        StoreDriver:  strings.ToLower(getenv("STORE_DRIVER", StoreMySQL)),
        JWTSecret:    must("JWT_SECRET"),
        AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 15),
        StoreTimeout: envDur("STORE_TIMEOUT", 5*time.Second),
        RabbitURL:    rabbitURL(),
        LogDir:       getenv("LOG_DIR", "logs"),
        LogLevel:     ParseLogLevel(os.Getenv("LOG_LEVEL")),
        AutoMigrate:  envBool("DB_AUTO_MIGRATE", true),
        RunConsumer:  envBool("CONSUMER_ENABLED", true),
    }
    switch cfg.StoreDriver {
    case StoreMySQL:
        cfg.DBUser = must("DB_USER")
        cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    case StoreMemory:
    default:
        log.Fatalf("invalid STORE_DRIVER %q (want mysql or memory)", cfg.StoreDriver)
    }
    if cfg.StoreTimeout <= 0 {
        cfg.StoreTimeout = 5 * time.Second
    }
    return cfg
}

// rabbitURL honours RABBITMQ_URL and the older AMQP_URL.
func rabbitURL() string {
    if v := os.Getenv("RABBITMQ_URL"); v != "" {
        return v
    }
    return os.Getenv("AMQP_URL")
}

// ParseLogLevel maps LOG_LEVEL names to gommon levels.  Unknown or empty
// values select INFO.
func ParseLogLevel(s string) glog.Lvl {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "debug":
        return glog.DEBUG
    case "warn", "warning":
        return glog.WARN
    case "error":
        return glog.ERROR
    case "off":
        return glog.OFF
    }
    return glog.INFO
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
