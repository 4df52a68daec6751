package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/poofware/booking-service/internal/utils"
)

type Config struct {
	AppName string
	AppPort string
	AppUrl  string
	Env     string

	// Booking rules
	BookingWindowDays      int
	PostViewingBufferHours int
	WorkdayStartHour       int
	WorkdayEndHour         int
	SlotMinutes            int
	DefaultTimeZone        string
	AllowGroupViewings     bool
	SkipHolidays           bool
	ApprovalTimeout        time.Duration

	// Auth
	JWTSecret []byte

	// Optional backing services
	DBUrl         string
	RedisAddr     string
	RedisPassword string

	// Twilio / SendGrid for notification delivery
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioFromPhone     string
	SendGridAPIKey      string
	SendGridFromEmail   string
	SendGridSandboxMode bool

	// LaunchDarkly
	LDSDKKey      string
	LDContextKind string
	LDContextKey  string

	SeedFile           string
	CORSAllowedOrigins []string
}

const (
	DefaultAppName      = "booking-service"
	LDConnectionTimeout = 5 * time.Second
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadConfig reads .env (if present) and the process environment, then
// applies LaunchDarkly overrides when LD_SDK_KEY is set. Invalid values are
// fatal.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		utils.Logger.WithError(err).Warn("Failed to read .env file")
	}

	cfg, err := Parse(os.LookupEnv)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid configuration")
	}
	utils.Logger.Info("Loading config for app: ", cfg.AppName)

	if cfg.LDSDKKey != "" {
		ldClient, err := ld.MakeClient(cfg.LDSDKKey, LDConnectionTimeout)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
		}
		if !ldClient.Initialized() {
			ldClient.Close()
			utils.Logger.Fatal("LaunchDarkly client failed to initialize")
		}
		defer ldClient.Close()

		ctx := ldcontext.NewWithKind(ldcontext.Kind(cfg.LDContextKind), cfg.LDContextKey)
		if err := ApplyFlags(cfg, ldClient, ctx); err != nil {
			utils.Logger.WithError(err).Fatal("Error retrieving LaunchDarkly flags")
		}
	} else {
		utils.Logger.Debug("LD_SDK_KEY not set, using environment values for flags")
	}

	return cfg
}

// Parse builds a Config from lookup, filling defaults for anything unset.
func Parse(lookup LookupFunc) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	var errs []string
	intVal := func(key string, def int) int {
		raw := get(key, strconv.Itoa(def))
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %q is not an integer", key, raw))
			return def
		}
		return n
	}
	boolVal := func(key string, def bool) bool {
		raw := get(key, strconv.FormatBool(def))
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %q is not a boolean", key, raw))
			return def
		}
		return b
	}

	cfg := &Config{
		AppName: get("APP_NAME", DefaultAppName),
		AppPort: get("APP_PORT", "8080"),
		Env:     get("ENV", "dev"),

		BookingWindowDays:      intVal("BOOKING_WINDOW_DAYS", 14),
		PostViewingBufferHours: intVal("POST_VIEWING_BUFFER_HOURS", 1),
		WorkdayStartHour:       intVal("WORKDAY_START_HOUR", 9),
		WorkdayEndHour:         intVal("WORKDAY_END_HOUR", 18),
		SlotMinutes:            intVal("SLOT_MINUTES", 60),
		DefaultTimeZone:        get("DEFAULT_TIMEZONE", "America/Chicago"),
		AllowGroupViewings:     boolVal("ALLOW_GROUP_VIEWINGS", false),
		SkipHolidays:           boolVal("SKIP_HOLIDAYS", true),

		DBUrl:         get("DB_URL", ""),
		RedisAddr:     get("REDIS_ADDR", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),

		TwilioAccountSID:    get("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     get("TWILIO_AUTH_TOKEN", ""),
		TwilioFromPhone:     get("TWILIO_FROM_PHONE", "+10005550006"),
		SendGridAPIKey:      get("SENDGRID_API_KEY", ""),
		SendGridFromEmail:   get("SENDGRID_FROM_EMAIL", "no-reply@example.com"),
		SendGridSandboxMode: boolVal("SENDGRID_SANDBOX_MODE", false),

		LDSDKKey:      get("LD_SDK_KEY", ""),
		LDContextKind: get("LD_CONTEXT_KIND", "service"),
		LDContextKey:  get("LD_CONTEXT_KEY", DefaultAppName),

		SeedFile: get("SEED_FILE", ""),
	}
	cfg.AppUrl = get("APP_URL", "http://localhost:"+cfg.AppPort)

	if secret := get("JWT_SECRET", ""); secret != "" {
		cfg.JWTSecret = []byte(secret)
	}

	rawTimeout := get("APPROVAL_TIMEOUT", "24h")
	timeout, err := time.ParseDuration(rawTimeout)
	if err != nil || timeout <= 0 {
		errs = append(errs, fmt.Sprintf("APPROVAL_TIMEOUT: %q is not a positive duration", rawTimeout))
	}
	cfg.ApprovalTimeout = timeout

	for _, o := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	if cfg.BookingWindowDays < 0 {
		errs = append(errs, "BOOKING_WINDOW_DAYS must be >= 0")
	}
	if cfg.PostViewingBufferHours < 0 {
		errs = append(errs, "POST_VIEWING_BUFFER_HOURS must be >= 0")
	}
	if cfg.WorkdayStartHour < 0 || cfg.WorkdayEndHour > 24 || cfg.WorkdayStartHour >= cfg.WorkdayEndHour {
		errs = append(errs, "WORKDAY_START_HOUR must be before WORKDAY_END_HOUR within 0-24")
	}
	if cfg.SlotMinutes <= 0 {
		errs = append(errs, "SLOT_MINUTES must be > 0")
	}
	if _, err := time.LoadLocation(cfg.DefaultTimeZone); err != nil {
		errs = append(errs, fmt.Sprintf("DEFAULT_TIMEZONE: %v", err))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// FlagEvaluator is the part of the LaunchDarkly client config reads.
type FlagEvaluator interface {
	BoolVariation(key string, context ldcontext.Context, defaultVal bool) (bool, error)
	IntVariation(key string, context ldcontext.Context, defaultVal int) (int, error)
}

// ApplyFlags overrides booking rules with flag values. Environment values
// act as flag defaults.
func ApplyFlags(cfg *Config, ev FlagEvaluator, ctx ldcontext.Context) error {
	var err error

	if cfg.BookingWindowDays, err = ev.IntVariation("booking_window_days", ctx, cfg.BookingWindowDays); err != nil {
		return fmt.Errorf("booking_window_days: %w", err)
	}
	utils.Logger.Debugf("booking_window_days flag: %d", cfg.BookingWindowDays)

	if cfg.PostViewingBufferHours, err = ev.IntVariation("post_viewing_buffer_hours", ctx, cfg.PostViewingBufferHours); err != nil {
		return fmt.Errorf("post_viewing_buffer_hours: %w", err)
	}
	utils.Logger.Debugf("post_viewing_buffer_hours flag: %d", cfg.PostViewingBufferHours)

	if cfg.AllowGroupViewings, err = ev.BoolVariation("allow_group_viewings", ctx, cfg.AllowGroupViewings); err != nil {
		return fmt.Errorf("allow_group_viewings: %w", err)
	}
	utils.Logger.Debugf("allow_group_viewings flag: %t", cfg.AllowGroupViewings)

	if cfg.SendGridSandboxMode, err = ev.BoolVariation("sendgrid_sandbox_mode", ctx, cfg.SendGridSandboxMode); err != nil {
		return fmt.Errorf("sendgrid_sandbox_mode: %w", err)
	}
	utils.Logger.Debugf("sendgrid_sandbox_mode flag: %t", cfg.SendGridSandboxMode)

	if cfg.SkipHolidays, err = ev.BoolVariation("skip_holidays", ctx, cfg.SkipHolidays); err != nil {
		return fmt.Errorf("skip_holidays: %w", err)
	}
	utils.Logger.Debugf("skip_holidays flag: %t", cfg.SkipHolidays)

	return nil
}

// Default returns the configuration produced by an empty environment.
func Default() *Config {
	cfg, err := Parse(func(string) (string, bool) { return "", false })
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) PostViewingBuffer() time.Duration {
	return time.Duration(c.PostViewingBufferHours) * time.Hour
}

func (c *Config) SlotLength() time.Duration {
	return time.Duration(c.SlotMinutes) * time.Minute
}

func (c *Config) Location() *time.Location {
	return utils.LoadLocation(c.DefaultTimeZone)
}
