package config

import (
	"reflect"
	"testing"

	"otc-signals/internal/domain"
)

var allKeys = []string{
	"PORT", "TELEGRAM_BOT_TOKEN", "DATABASE_URL", "REDIS_URL", "LOG_LEVEL", "LOG_FORMAT", "CORS_ALLOW_ORIGINS",
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "ADVISOR_TIMEOUT_SECS",
	"MARKET_WS_URL", "MARKET_WS_SSID", "MARKET_MAX_RECONNECT", "MARKET_PRICE_TIMEOUT_SECS", "PRICE_CACHE_TTL_SECS",
	"TIMEZONE", "MIN_SIGNAL_GAP_MINS",
	"BROADCAST_INTERVAL_MINS", "BROADCAST_PAIRS", "BROADCAST_TIMEFRAME", "BROADCAST_GAP_MINS",
	"MCP_TRANSPORT", "MCP_HTTP_ENABLED", "MCP_HTTP_BIND", "MCP_HTTP_PORT", "MCP_AUTH_TOKEN",
	"MCP_REQUEST_TIMEOUT_SECS", "MCP_RATE_LIMIT_PER_MIN",
	"SSH_HOST", "SSH_PORT", "SSH_HOST_KEY_PATH", "SSH_AUTHORIZED_KEYS_PATH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.Port != 8080 || cfg.RedisURL != "localhost:6379" {
		t.Fatalf("unexpected server defaults: port=%d redis=%s", cfg.Port, cfg.RedisURL)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected log defaults: %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" || cfg.AdvisorTimeoutSecs != 10 {
		t.Fatalf("unexpected advisor defaults: %+v", cfg)
	}
	if cfg.MarketMaxReconnect != 5 || cfg.MarketPriceTimeoutSecs != 5 || cfg.PriceCacheTTLSecs != 30 {
		t.Fatalf("unexpected market defaults: %+v", cfg)
	}
	if cfg.Timezone != "Asia/Riyadh" || cfg.MinSignalGapMins != 3 {
		t.Fatalf("unexpected analysis defaults: %+v", cfg)
	}
	if cfg.BroadcastIntervalMins != 0 || cfg.BroadcastTimeframe != domain.TimeframeM1 || cfg.BroadcastGapMins != 5 {
		t.Fatalf("unexpected broadcast defaults: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.BroadcastPairs, domain.DefaultPairs) {
		t.Fatalf("unexpected broadcast pairs: %v", cfg.BroadcastPairs)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("expected default MCP transport stdio, got %s", cfg.MCPTransport)
	}
	if cfg.MCPHTTPBind != "127.0.0.1" || cfg.MCPHTTPPort != 8090 {
		t.Fatalf("unexpected MCP http defaults: %s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort)
	}
	if cfg.MCPRequestTimeoutSecs != 5 || cfg.MCPRateLimitPerMin != 60 {
		t.Fatalf("unexpected MCP defaults: timeout=%d rate=%d", cfg.MCPRequestTimeoutSecs, cfg.MCPRateLimitPerMin)
	}
	if cfg.SSHHost != "0.0.0.0" || cfg.SSHPort != 2222 || cfg.SSHAuthorizedKeysPath != "" {
		t.Fatalf("unexpected ssh defaults: %+v", cfg)
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("OPENAI_API_KEY", "sk")
	t.Setenv("OPENAI_MODEL", "grok-2")
	t.Setenv("MARKET_WS_URL", "wss://feed.example/ws")
	t.Setenv("MARKET_MAX_RECONNECT", "2")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("MIN_SIGNAL_GAP_MINS", "4")
	t.Setenv("BROADCAST_INTERVAL_MINS", "15")
	t.Setenv("BROADCAST_PAIRS", "usd/jpy-otc, #AAPL,bogus,USD/JPY-OTC")
	t.Setenv("BROADCAST_TIMEFRAME", "m5")
	t.Setenv("MCP_TRANSPORT", "http")
	t.Setenv("MCP_HTTP_ENABLED", "true")
	t.Setenv("MCP_HTTP_PORT", "9191")
	t.Setenv("MCP_AUTH_TOKEN", "secret")
	t.Setenv("SSH_PORT", "2300")
	t.Setenv("SSH_AUTHORIZED_KEYS_PATH", "/etc/otc/keys")

	cfg := Load()
	if cfg.Port != 9000 || cfg.TelegramBotToken != "token" || cfg.DatabaseURL != "postgres://example" || cfg.RedisURL != "redis:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.OpenAIAPIKey != "sk" || cfg.OpenAIModel != "grok-2" {
		t.Fatalf("unexpected advisor config: %+v", cfg)
	}
	if cfg.MarketWSURL != "wss://feed.example/ws" || cfg.MarketMaxReconnect != 2 {
		t.Fatalf("unexpected market config: %+v", cfg)
	}
	if cfg.Timezone != "UTC" || cfg.MinSignalGapMins != 4 {
		t.Fatalf("unexpected analysis config: %+v", cfg)
	}
	if cfg.BroadcastIntervalMins != 15 || cfg.BroadcastTimeframe != domain.TimeframeM5 {
		t.Fatalf("unexpected broadcast config: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.BroadcastPairs, []string{"USD/JPY-OTC", "#AAPL"}) {
		t.Fatalf("unexpected broadcast pairs: %v", cfg.BroadcastPairs)
	}
	if cfg.MCPTransport != "http" || !cfg.MCPHTTPEnabled || cfg.MCPHTTPPort != 9191 || cfg.MCPAuthToken != "secret" {
		t.Fatalf("unexpected MCP config: %+v", cfg)
	}
	if cfg.SSHPort != 2300 || cfg.SSHAuthorizedKeysPath != "/etc/otc/keys" {
		t.Fatalf("unexpected ssh config: %+v", cfg)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "bad")
	t.Setenv("MARKET_PRICE_TIMEOUT_SECS", "-1")
	t.Setenv("BROADCAST_INTERVAL_MINS", "-5")
	t.Setenv("BROADCAST_PAIRS", "nope,")
	t.Setenv("BROADCAST_TIMEFRAME", "H4")
	t.Setenv("MCP_TRANSPORT", "grpc")
	t.Setenv("MCP_HTTP_PORT", "bad")

	cfg := Load()
	if cfg.Port != 8080 || cfg.MarketPriceTimeoutSecs != 5 || cfg.MCPHTTPPort != 8090 {
		t.Fatalf("invalid numeric values should fall back to defaults: %+v", cfg)
	}
	if cfg.BroadcastIntervalMins != 0 || cfg.BroadcastTimeframe != domain.TimeframeM1 {
		t.Fatalf("invalid broadcast values should fall back: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.BroadcastPairs, domain.DefaultPairs) {
		t.Fatalf("invalid pair list should fall back to defaults: %v", cfg.BroadcastPairs)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("unsupported transport should fall back to stdio, got %s", cfg.MCPTransport)
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	clearEnv(t)
	if cfg := Load(); len(cfg.CORSOrigins) != 0 {
		t.Fatalf("expected no origins by default, got %v", cfg.CORSOrigins)
	}

	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	cfg := Load()
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Fatalf("expected %v, got %v", want, cfg.CORSOrigins)
	}
}
