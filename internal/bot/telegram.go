package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"otc-signals/internal/domain"
	"otc-signals/internal/metrics"
	"otc-signals/internal/service"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

const commandTimeout = 60 * time.Second

type Analyzer interface {
	Analyze(ctx context.Context, settings domain.AnalysisSettings) ([]domain.Signal, error)
	Evaluate(ctx context.Context, pair string, tf domain.Timeframe, candles []domain.Candle, threshold int) (service.Evaluation, error)
}

type Config struct {
	Token    string
	Location *time.Location
	// Subscribers keeps /alerts opt-ins across restarts when set.
	Subscribers SubscriberStore
}

// Telegram is the running bot with its delivery helpers.
type Telegram struct {
	Bot      *tele.Bot
	Notifier *Notifier
	Alerts   *AlertDispatcher
}

func (t *Telegram) Stop() {
	if t != nil && t.Bot != nil {
		t.Bot.Stop()
	}
}

// StartTelegramBot returns nil when no token is configured or the bot
// cannot be created.
func StartTelegramBot(cfg Config, analyzer Analyzer, tracer trace.Tracer, m *metrics.Metrics, logger zerolog.Logger) *Telegram {
	logger = logger.With().Str("component", "telegram-bot").Logger()
	if cfg.Token == "" {
		logger.Info().Msg("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to create Telegram bot")
		return nil
	}

	notifier := NewNotifier(b, b.Me, cfg.Location, tracer, m, logger)
	alerts := NewAlertDispatcher(notifier, cfg.Subscribers, logger)
	loadCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if n, err := alerts.Load(loadCtx); err != nil {
		logger.Warn().Err(err).Msg("failed to restore alert subscribers")
	} else if n > 0 {
		logger.Info().Int("count", n).Msg("restored alert subscribers")
	}
	cancel()
	cmds := &commands{analyzer: analyzer, notifier: notifier, alerts: alerts, logger: logger}
	cmds.register(b)

	logger.Info().Str("username", b.Me.Username).Msg("Telegram bot started")
	go b.Start()
	return &Telegram{Bot: b, Notifier: notifier, Alerts: alerts}
}

type commands struct {
	analyzer Analyzer
	notifier *Notifier
	alerts   *AlertDispatcher
	logger   zerolog.Logger
}

func (h *commands) register(b *tele.Bot) {
	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	b.Handle("/pairs", func(c tele.Context) error {
		return c.Send(formatPairs())
	})
	b.Handle("/signals", h.signals)
	b.Handle("/algo", h.algo)
	b.Handle("/alerts", h.alertsMode)
}

func (h *commands) signals(c tele.Context) error {
	if h.analyzer == nil {
		return c.Send("خدمة التحليل غير متاحة")
	}
	settings, err := parseSignalArgs(c.Args())
	if err != nil {
		return c.Send("الاستخدام: /signals EUR/USD-OTC GBP/USD-OTC --tf M5")
	}
	chat := c.Chat()
	if chat == nil {
		return c.Send("تعذر تحديد الدردشة")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	_ = c.Notify(tele.Typing)

	signals, err := h.analyzer.Analyze(ctx, settings)
	if err != nil {
		return c.Send(err.Error())
	}
	if len(signals) == 0 {
		return c.Send("لا توجد إشارات في النطاق الزمني المحدد")
	}
	if err := h.notifier.SendSignals(ctx, fmt.Sprint(chat.ID), signals, settings.Timeframe); err != nil {
		h.logger.Warn().Err(err).Int64("chat_id", chat.ID).Msg("signals reply failed")
		return c.Send("فشل إرسال الرسالة إلى تيليجرام")
	}
	return nil
}

func (h *commands) algo(c tele.Context) error {
	if h.analyzer == nil {
		return c.Send("خدمة التحليل غير متاحة")
	}
	pair, tf, err := parseAlgoArgs(c.Args())
	if err != nil {
		return c.Send("الاستخدام: /algo EUR/USD-OTC [--tf M1]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	ev, err := h.analyzer.Evaluate(ctx, pair, tf, nil, 0)
	if err != nil {
		return c.Send(err.Error())
	}
	return c.Send(formatEvaluation(ev))
}

func (h *commands) alertsMode(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return c.Send("تعذر تحديد الدردشة")
	}

	mode, err := parseAlertMode(c.Args())
	if err != nil {
		return c.Send("الاستخدام: /alerts on | /alerts off | /alerts status")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch mode {
	case alertOn:
		if h.alerts.Subscribe(ctx, chat.ID) {
			return c.Send("تم تفعيل التنبيهات لهذه الدردشة.")
		}
		return c.Send("التنبيهات مفعلة مسبقاً لهذه الدردشة.")
	case alertOff:
		if h.alerts.Unsubscribe(ctx, chat.ID) {
			return c.Send("تم إيقاف التنبيهات لهذه الدردشة.")
		}
		return c.Send("التنبيهات متوقفة مسبقاً لهذه الدردشة.")
	default:
		if h.alerts.IsSubscribed(chat.ID) {
			return c.Send("حالة التنبيهات: مفعلة")
		}
		return c.Send("حالة التنبيهات: متوقفة")
	}
}

// parseSignalArgs reads pair symbols and an optional --tf flag. No pairs
// means the default set.
func parseSignalArgs(args []string) (domain.AnalysisSettings, error) {
	var settings domain.AnalysisSettings
	seen := make(map[string]bool)

	for i := 0; i < len(args); i++ {
		arg := strings.TrimSpace(args[i])
		if arg == "" {
			continue
		}

		if strings.HasPrefix(arg, "--tf") {
			value := strings.TrimPrefix(strings.TrimPrefix(arg, "--tf"), "=")
			if value == "" {
				if i+1 >= len(args) {
					return domain.AnalysisSettings{}, errors.New("missing timeframe value")
				}
				i++
				value = args[i]
			}
			tf := domain.Timeframe(strings.ToUpper(strings.TrimSpace(value)))
			if !tf.Valid() {
				return domain.AnalysisSettings{}, errors.New("unsupported timeframe")
			}
			settings.Timeframe = tf
			continue
		}

		if strings.HasPrefix(arg, "--") {
			return domain.AnalysisSettings{}, errors.New("unknown option")
		}
		pair, ok := domain.FindPair(arg)
		if !ok {
			return domain.AnalysisSettings{}, fmt.Errorf("unsupported pair %q", arg)
		}
		if !seen[pair.Symbol] {
			seen[pair.Symbol] = true
			settings.SelectedPairs = append(settings.SelectedPairs, pair.Symbol)
		}
	}

	if len(settings.SelectedPairs) == 0 {
		settings.SelectedPairs = append([]string(nil), domain.DefaultPairs...)
	}
	return settings, nil
}

func parseAlgoArgs(args []string) (string, domain.Timeframe, error) {
	settings, err := parseSignalArgs(args)
	if err != nil {
		return "", "", err
	}
	if len(args) == 0 || len(settings.SelectedPairs) != 1 {
		return "", "", errors.New("exactly one pair required")
	}
	tf := settings.Timeframe
	if tf == "" {
		tf = domain.TimeframeM1
	}
	return settings.SelectedPairs[0], tf, nil
}

func formatPairs() string {
	lines := make([]string, 0, len(domain.TradingPairs))
	for _, p := range domain.TradingPairs {
		lines = append(lines, fmt.Sprintf("%s  %s", p.Symbol, p.Name))
	}
	return strings.Join(lines, "\n")
}
