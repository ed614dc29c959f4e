// Package webhook publishes queue items by POSTing them to an HTTP endpoint.
//
// Useful when the actual destination is driven by an external automation
// (or a human-in-the-loop approval queue) reachable over HTTP.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"postpilot/internal/poster"
	"postpilot/pkg/logx"
)

type Config struct {
	URL        string
	AuthToken  string        // optional bearer token
	Timeout    time.Duration // per-attempt cap; default 45s
	RatePerMin int           // default 60
}

type Poster struct {
	cfg Config
	log logx.Logger

	client  *http.Client
	limiter *rate.Limiter
}

type payload struct {
	Content   string `json:"content"`
	PlainText string `json:"plain_text"`
	MediaKind string `json:"media_kind,omitempty"`
	MediaRef  string `json:"media_ref,omitempty"`
}

func New(cfg Config, log logx.Logger) (*Poster, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("webhook url is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	rpm := cfg.RatePerMin
	if rpm <= 0 {
		rpm = 60
	}
	return &Poster{
		cfg:     cfg,
		log:     log,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}, nil
}

// Post performs one attempt. Any non-2xx status is a failure; the engine
// decides whether and when to retry.
func (p *Poster) Post(ctx context.Context, req poster.Request) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		return wrapTimeout(err)
	}

	pl := payload{Content: req.Content, PlainText: req.PlainText}
	if req.Media != nil {
		pl.MediaKind = req.Media.Kind
		pl.MediaRef = req.Media.Ref
	}
	body, err := json.Marshal(pl)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.cfg.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.cfg.AuthToken)
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.log.Warn("webhook publish failed", logx.Duration("took", time.Since(start)), logx.Err(err))
		return wrapTimeout(err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("webhook returned %s", resp.Status)
		p.log.Warn("webhook publish rejected", logx.Int("status", resp.StatusCode), logx.Duration("took", time.Since(start)))
		return err
	}
	p.log.Debug("webhook publish ok", logx.Int("status", resp.StatusCode), logx.Duration("took", time.Since(start)))
	return nil
}

func wrapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return poster.ErrTimeout
	}
	return err
}
