package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"whale-sentry/internal/domain"

	tele "gopkg.in/telebot.v3"
)

// RiskQuerier provides on-demand risk scores for bot commands.
type RiskQuerier interface {
	PredictRisk(ctx context.Context, coin string, target time.Time) (*domain.RiskResult, error)
}

// StartTelegramBot wires the chat commands and returns a notifier for trade
// decisions. Returns nil when no token is configured; callers treat a nil
// notifier as "no notifications".
func StartTelegramBot(risk RiskQuerier, strategy Strategy, engine *Engine) *TelegramNotifier {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/risk", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /risk BTC\nSupported: %s", strings.Join(domain.SupportedCoins, ", ")))
		}
		coin := strings.ToUpper(args[0])
		if !domain.IsSupportedCoin(coin) {
			return c.Send(fmt.Sprintf("Unknown coin: %s\nSupported: %s", coin, strings.Join(domain.SupportedCoins, ", ")))
		}
		res, err := risk.PredictRisk(context.Background(), coin, time.Now().UTC())
		if err != nil {
			return c.Send(fmt.Sprintf("Error scoring %s: %v", coin, err))
		}
		msg := fmt.Sprintf(
			"%s risk (%s)\nRisk score: %.1f/100\nHigh-vol probability: %.0f%%\nLiquidation risk: %.1f/100\nModel: %s",
			coin, res.Date.Format("2006-01-02"), res.RiskScore, res.HighVolatilityProb*100, res.LiquidationRisk, res.ModelVariant,
		)
		return c.Send(msg)
	})

	b.Handle("/signal", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /signal BTC\nSupported: %s", strings.Join(domain.SupportedCoins, ", ")))
		}
		coin := strings.ToUpper(args[0])
		if !domain.IsSupportedCoin(coin) {
			return c.Send(fmt.Sprintf("Unknown coin: %s\nSupported: %s", coin, strings.Join(domain.SupportedCoins, ", ")))
		}
		sig := strategy.EvaluateBuy(context.Background(), coin)
		msg := fmt.Sprintf(
			"%s signal\nScore: %.1f\nBuy: %t\n%s",
			coin, sig.SignalScore, sig.Buy, sig.Reason,
		)
		return c.Send(msg)
	})

	b.Handle("/status", func(c tele.Context) error {
		if engine == nil {
			return c.Send("Trade engine is not running")
		}
		st := engine.Status()
		msg := fmt.Sprintf("Engine for %s\nRunning: %t\nLast run: %s", st.Coin, st.Running, st.LastRunAt.Format(time.RFC3339))
		if st.Position != nil {
			msg += fmt.Sprintf("\nPosition: %.8f @ %.2f since %s",
				st.Position.Quantity, st.Position.EntryPrice, st.Position.EntryTime.Format(time.RFC3339))
		} else {
			msg += "\nPosition: none"
		}
		return c.Send(msg)
	})

	log.Println("Telegram bot started")
	go b.Start()

	return newTelegramNotifier(b)
}

// TelegramNotifier pushes executed trade decisions to a configured chat.
type TelegramNotifier struct {
	bot    *tele.Bot
	chatID int64
}

func newTelegramNotifier(b *tele.Bot) *TelegramNotifier {
	raw := os.Getenv("TELEGRAM_CHAT_ID")
	if raw == "" {
		log.Println("TELEGRAM_CHAT_ID not set, trade notifications disabled")
		return nil
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("invalid TELEGRAM_CHAT_ID %q, trade notifications disabled", raw)
		return nil
	}
	return &TelegramNotifier{bot: b, chatID: chatID}
}

func (n *TelegramNotifier) NotifyDecision(d domain.TradeDecision) {
	if n == nil {
		return
	}
	msg := fmt.Sprintf(
		"%s %s\nQty: %.8f @ %.2f\nSignal: %.1f (premium %.4f, size x%.1f)\n%s",
		strings.ToUpper(string(d.Side)), d.Coin, d.Quantity, d.Price, d.SignalScore, d.Premium, d.Multiplier, d.Reason,
	)
	if _, err := n.bot.Send(tele.ChatID(n.chatID), msg); err != nil {
		log.Printf("failed to send trade notification: %v", err)
	}
}
