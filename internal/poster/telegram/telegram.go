// Package telegram publishes queue items to a Telegram channel.
package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"postpilot/internal/poster"
	"postpilot/internal/queue"
	"postpilot/pkg/logx"
)

type Config struct {
	Token      string
	ChannelID  int64         // target channel or chat
	Timeout    time.Duration // per-attempt cap; default 45s
	RatePerMin int           // Telegram flood control; default 20
}

type Poster struct {
	cfg Config
	log logx.Logger

	bot     *tele.Bot
	limiter *rate.Limiter
}

func New(cfg Config, log logx.Logger) (*Poster, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChannelID == 0 {
		return nil, errors.New("telegram channel_id is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	rpm := cfg.RatePerMin
	if rpm <= 0 {
		rpm = 20
	}

	b, err := tele.NewBot(tele.Settings{
		Token: cfg.Token,
		// The poster never receives updates; offline settings keep NewBot
		// from long-polling.
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return &Poster{
		cfg:     cfg,
		log:     log,
		bot:     b,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}, nil
}

// Post sends the content as one channel message. Media becomes a photo with
// the plain text as caption; otherwise the plain text is sent as-is.
//
// One attempt only. The deadline covers the limiter wait plus the send.
func (p *Poster) Post(ctx context.Context, req poster.Request) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		return wrapTimeout(err)
	}

	chat := &tele.Chat{ID: p.cfg.ChannelID}
	start := time.Now()

	var err error
	if req.Media != nil {
		photo := &tele.Photo{File: mediaFile(req.Media), Caption: req.PlainText}
		_, err = p.bot.Send(chat, photo)
	} else {
		_, err = p.bot.Send(chat, req.PlainText, &tele.SendOptions{DisableWebPagePreview: true})
	}
	if err != nil {
		p.log.Warn("telegram publish failed", logx.Duration("took", time.Since(start)), logx.Err(err))
		return wrapTimeout(err)
	}
	p.log.Debug("telegram publish ok", logx.Duration("took", time.Since(start)))
	return nil
}

func mediaFile(m *queue.Media) tele.File {
	if strings.HasPrefix(m.Ref, "http://") || strings.HasPrefix(m.Ref, "https://") {
		return tele.FromURL(m.Ref)
	}
	return tele.FromDisk(m.Ref)
}

func wrapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return poster.ErrTimeout
	}
	return err
}
