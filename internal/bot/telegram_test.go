package bot

import (
	"reflect"
	"testing"

	"otc-signals/internal/domain"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	if tg := StartTelegramBot(Config{}, nil, trace.NewNoopTracerProvider().Tracer("test"), nil, zerolog.Nop()); tg != nil {
		t.Fatal("expected nil bot without token")
	}
	var tg *Telegram
	tg.Stop()
}

func TestParseSignalArgsPairsAndTimeframe(t *testing.T) {
	settings, err := parseSignalArgs([]string{"eur/usd-otc", "--tf", "m5", "#AAPL", "EUR/USD-OTC"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(settings.SelectedPairs, []string{"EUR/USD-OTC", "#AAPL"}) {
		t.Fatalf("unexpected pairs %v", settings.SelectedPairs)
	}
	if settings.Timeframe != domain.TimeframeM5 {
		t.Fatalf("expected M5, got %s", settings.Timeframe)
	}

	settings, err = parseSignalArgs([]string{"--tf=M15"})
	if err != nil || settings.Timeframe != domain.TimeframeM15 {
		t.Fatalf("unexpected inline flag result %+v err=%v", settings, err)
	}
	if !reflect.DeepEqual(settings.SelectedPairs, domain.DefaultPairs) {
		t.Fatalf("expected default pairs, got %v", settings.SelectedPairs)
	}
}

func TestParseSignalArgsRejectsInvalid(t *testing.T) {
	for _, args := range [][]string{
		{"BTC/USD"},
		{"--tf", "H1"},
		{"--tf"},
		{"--risk", "3"},
	} {
		if _, err := parseSignalArgs(args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestParseAlgoArgs(t *testing.T) {
	pair, tf, err := parseAlgoArgs([]string{"usd/jpy-otc"})
	if err != nil || pair != "USD/JPY-OTC" || tf != domain.TimeframeM1 {
		t.Fatalf("unexpected result %s %s err=%v", pair, tf, err)
	}
	if _, _, err := parseAlgoArgs(nil); err == nil {
		t.Fatal("expected error without pair")
	}
	if _, _, err := parseAlgoArgs([]string{"EUR/USD-OTC", "GBP/USD-OTC"}); err == nil {
		t.Fatal("expected error for two pairs")
	}
}
