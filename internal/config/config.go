package config

import (
	"os"
	"strconv"
	"strings"

	"otc-signals/internal/domain"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Port             int
	TelegramBotToken string
	DatabaseURL      string
	RedisURL         string
	LogLevel         string
	LogFormat        string
	CORSOrigins      []string

	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	AdvisorTimeoutSecs int

	MarketWSURL            string
	MarketWSSSID           string
	MarketMaxReconnect     int
	MarketPriceTimeoutSecs int
	PriceCacheTTLSecs      int

	Timezone         string
	MinSignalGapMins int

	BroadcastIntervalMins int
	BroadcastPairs        []string
	BroadcastTimeframe    domain.Timeframe
	BroadcastGapMins      int

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	SSHHost               string
	SSHPort               int
	SSHHostKeyPath        string
	SSHAuthorizedKeysPath string
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		MarketWSURL:      strings.TrimSpace(os.Getenv("MARKET_WS_URL")),
		MarketWSSSID:     os.Getenv("MARKET_WS_SSID"),
	}

	if cfg.TelegramBotToken == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, telegram delivery disabled")
	}
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, using synthetic candles and no channel store")
	}
	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set, advisor disabled")
	}
	if cfg.MarketWSURL == "" {
		log.Warn().Msg("MARKET_WS_URL not set, live prices disabled")
	}

	cfg.Port = positiveInt("PORT", 8080)
	cfg.LogLevel = stringOr("LOG_LEVEL", "info")
	cfg.LogFormat = stringOr("LOG_FORMAT", "json")
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ALLOW_ORIGINS"))

	cfg.OpenAIModel = stringOr("OPENAI_MODEL", "gpt-4o-mini")
	cfg.AdvisorTimeoutSecs = positiveInt("ADVISOR_TIMEOUT_SECS", 10)

	cfg.MarketMaxReconnect = positiveInt("MARKET_MAX_RECONNECT", 5)
	cfg.MarketPriceTimeoutSecs = positiveInt("MARKET_PRICE_TIMEOUT_SECS", 5)
	cfg.PriceCacheTTLSecs = positiveInt("PRICE_CACHE_TTL_SECS", 30)

	cfg.Timezone = stringOr("TIMEZONE", "Asia/Riyadh")
	cfg.MinSignalGapMins = positiveInt("MIN_SIGNAL_GAP_MINS", 3)

	// zero disables the scheduled broadcast
	cfg.BroadcastIntervalMins = 0
	if v := strings.TrimSpace(os.Getenv("BROADCAST_INTERVAL_MINS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.BroadcastIntervalMins = n
		}
	}
	cfg.BroadcastPairs = parsePairs(os.Getenv("BROADCAST_PAIRS"))
	cfg.BroadcastTimeframe = domain.Timeframe(strings.ToUpper(stringOr("BROADCAST_TIMEFRAME", string(domain.TimeframeM1))))
	if !cfg.BroadcastTimeframe.Valid() {
		log.Warn().Str("timeframe", string(cfg.BroadcastTimeframe)).Msg("unsupported BROADCAST_TIMEFRAME, defaulting to M1")
		cfg.BroadcastTimeframe = domain.TimeframeM1
	}
	cfg.BroadcastGapMins = positiveInt("BROADCAST_GAP_MINS", 5)

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Warn().Str("transport", cfg.MCPTransport).Msg("unsupported MCP_TRANSPORT, defaulting to stdio")
		cfg.MCPTransport = "stdio"
	}
	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")
	cfg.MCPHTTPBind = stringOr("MCP_HTTP_BIND", "127.0.0.1")
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 5)
	cfg.MCPRateLimitPerMin = positiveInt("MCP_RATE_LIMIT_PER_MIN", 60)

	cfg.SSHHost = stringOr("SSH_HOST", "0.0.0.0")
	cfg.SSHPort = positiveInt("SSH_PORT", 2222)
	cfg.SSHHostKeyPath = stringOr("SSH_HOST_KEY_PATH", ".ssh/otc_signals_ed25519")
	cfg.SSHAuthorizedKeysPath = strings.TrimSpace(os.Getenv("SSH_AUTHORIZED_KEYS_PATH"))

	return cfg
}

func stringOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func positiveInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", v).Int("default", fallback).Msg("invalid integer setting, using default")
		return fallback
	}
	return n
}

// splitList trims comma separated values and drops blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// parsePairs keeps known symbols in the given order, dropping duplicates.
// An empty or fully invalid list yields the default pairs.
func parsePairs(raw string) []string {
	fallback := append([]string(nil), domain.DefaultPairs...)
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		pair, ok := domain.FindPair(part)
		if !ok {
			continue
		}
		if _, dup := seen[pair.Symbol]; dup {
			continue
		}
		seen[pair.Symbol] = struct{}{}
		out = append(out, pair.Symbol)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
