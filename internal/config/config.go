package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TransportPolling = "polling"
	TransportWebhook = "webhook"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	BotToken         string
	DBDSN            string
	RedisURL         string
	AdminID          int64
	Timezone         *time.Location
	Transport        string
	Port             int
	WebhookURL       string
	WebhookSecret    string
	SlackWebhookURL  string
	WizardTTL        time.Duration
	SendRate         float64
	DBConnect        RetryConfig
	Reminders        ReminderConfig
	RateLimitWebhook RateLimitConfig
}

// ReminderConfig controla a varredura periódica de lembretes.
type ReminderConfig struct {
	Enabled  bool
	Interval time.Duration
}

// RetryConfig define tentativas fixas de conexão.
type RetryConfig struct {
	Attempts int
	Backoff  time.Duration
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.BotToken = strings.TrimSpace(getEnv("TELEGRAM_BOT_TOKEN", ""))
	if cfg.BotToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN obrigatório")
	}

	cfg.DBDSN = strings.TrimSpace(getEnv("DATABASE_URL", getEnv("DB_DSN", "")))
	if cfg.DBDSN == "" {
		return nil, errors.New("DATABASE_URL obrigatório")
	}
	if strings.HasPrefix(cfg.DBDSN, "postgres://") {
		cfg.DBDSN = "postgresql://" + strings.TrimPrefix(cfg.DBDSN, "postgres://")
	}

	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))

	adminStr := strings.TrimSpace(getEnv("ADMIN_ID", ""))
	if adminStr != "" {
		adminID, err := strconv.ParseInt(adminStr, 10, 64)
		if err != nil || adminID <= 0 {
			return nil, errors.New("ADMIN_ID inválido")
		}
		cfg.AdminID = adminID
	}

	// O nome vai para AT TIME ZONE no Postgres, que não conhece "Local".
	tz := strings.TrimSpace(getEnv("TIMEZONE", "America/Sao_Paulo"))
	if strings.EqualFold(tz, "local") {
		return nil, errors.New("TIMEZONE deve ser um nome IANA, como America/Sao_Paulo")
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.New("TIMEZONE inválido")
	}
	cfg.Timezone = loc

	cfg.Transport = strings.ToLower(strings.TrimSpace(getEnv("TRANSPORT", TransportPolling)))
	if cfg.Transport != TransportPolling && cfg.Transport != TransportWebhook {
		return nil, errors.New("TRANSPORT deve ser polling ou webhook")
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.WebhookURL = strings.TrimSpace(getEnv("WEBHOOK_URL", ""))
	cfg.WebhookSecret = strings.TrimSpace(getEnv("WEBHOOK_SECRET", ""))
	if cfg.Transport == TransportWebhook && cfg.WebhookURL == "" {
		return nil, errors.New("WEBHOOK_URL obrigatório no modo webhook")
	}

	cfg.SlackWebhookURL = strings.TrimSpace(getEnv("SLACK_WEBHOOK_URL", ""))

	wizardTTL, err := parseDurationEnv("WIZARD_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.WizardTTL = wizardTTL

	sendRate, err := parseFloatEnv("SEND_RATE", 25)
	if err != nil {
		return nil, err
	}
	cfg.SendRate = sendRate

	attempts, err := parseIntEnv("DB_CONNECT_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	backoff, err := parseDurationEnv("DB_CONNECT_BACKOFF", time.Second)
	if err != nil {
		return nil, err
	}
	cfg.DBConnect = RetryConfig{Attempts: attempts, Backoff: backoff}

	interval, err := parseDurationEnv("REMINDER_INTERVAL", 60*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.Reminders = ReminderConfig{
		Enabled:  getEnv("REMINDERS_ENABLED", "true") != "false",
		Interval: interval,
	}

	cfg.RateLimitWebhook = RateLimitConfig{RequestsPerSecond: 30, Burst: 60}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil || dur <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

func parseIntEnv(key string, def int) (int, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return n, nil
}

func parseFloatEnv(key string, def float64) (float64, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return f, nil
}
