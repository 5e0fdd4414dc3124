package notifier

import (
	"context"
	"fmt"
	"math"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Pathwatch/internal/model"
)

// Telegram pushes reseed events and top-zone changes to a chat. Quiet by
// default: plain live ticks with an unchanged top zone send nothing.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger

	lastTopCenter float64
	lastStatus    model.SnapshotStatus
}

// NewTelegram connects the bot and verifies the token
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting telegram bot: %w", err)
	}
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

// Render implements the renderer sink contract
func (t *Telegram) Render(_ context.Context, snap *model.LiveSnapshot) error {
	msg, notable := t.compose(snap)
	if !notable {
		return nil
	}

	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, msg)); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	t.logger.Debug().Str("status", string(snap.Status)).Msg("Alert sent")
	return nil
}

// compose decides whether the snapshot is worth an alert and formats it
func (t *Telegram) compose(snap *model.LiveSnapshot) (string, bool) {
	defer func() {
		t.lastStatus = snap.Status
		if len(snap.Zones) > 0 {
			t.lastTopCenter = snap.Zones[0].Center()
		}
	}()

	switch snap.Status {
	case model.StatusStalled:
		return fmt.Sprintf(
			"%s: every simulated path eliminated at %.5f - ensemble reseeds next tick",
			snap.Symbol, snap.Observation.Price,
		), true
	case model.StatusReseeded:
		return fmt.Sprintf(
			"%s: ensemble reseeded from %.5f - survivor history restarted",
			snap.Symbol, snap.Observation.Price,
		), true
	}

	if len(snap.Zones) == 0 {
		return "", false
	}

	top := snap.Zones[0]
	moved := t.lastTopCenter == 0 ||
		math.Abs(top.Center()-t.lastTopCenter)/t.lastTopCenter > 0.005
	if !moved && t.lastStatus == snap.Status {
		return "", false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s @ %.5f | %d/%d paths alive\n",
		snap.Symbol, snap.Observation.Price, snap.SurvivingPaths, snap.TotalPaths)
	fmt.Fprintf(&b, "Top zone: %s %.5f-%.5f (%.0f%% of paths)",
		top.Type, top.PriceLow, top.PriceHigh, top.Probability*100)
	return b.String(), true
}
