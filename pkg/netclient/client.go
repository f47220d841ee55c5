// Package netclient talks to the engagement platform's REST surface:
// vote submission and reward claims. Every call is fire-and-forget on a
// background goroutine with an optional completion callback, so a slow
// or failing endpoint can never stall widget progression. Outbound
// traffic is rate limited to keep a tap-happy user from flooding the
// platform.
package netclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"engagekit/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Second
	defaultRate    = 10 // requests per second
	defaultBurst   = 20
)

// Result is the outcome of one request, delivered to the completion
// callback. Err is set for transport failures; HTTP error statuses are
// reported via StatusCode with Err nil.
type Result struct {
	StatusCode int
	Body       []byte
	Err        error
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	AuthToken      string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

// Client is the rate-limited REST collaborator.
type Client struct {
	http    *fasthttp.Client
	limiter *rate.Limiter
	token   string
	timeout time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
	ctx    context.Context
}

// New builds a ready-to-use client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = defaultRate
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		http:    &fasthttp.Client{ReadTimeout: opts.Timeout, WriteTimeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.Burst),
		token:   opts.AuthToken,
		timeout: opts.Timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SubmitVote POSTs the chosen option to the widget's vote URL. done may
// be nil.
func (c *Client) SubmitVote(voteURL, optionID string, done func(Result)) {
	body, _ := json.Marshal(map[string]string{"option_id": optionID})
	c.async("submit_vote", fasthttp.MethodPost, voteURL, body, done)
}

// ClaimReward POSTs to a widget's rewards claim URL. done may be nil.
func (c *Client) ClaimReward(claimURL string, done func(Result)) {
	c.async("claim_reward", fasthttp.MethodPost, claimURL, nil, done)
}

// Fetch GETs an arbitrary platform resource. done may be nil.
func (c *Client) Fetch(url string, done func(Result)) {
	c.async("fetch", fasthttp.MethodGet, url, nil, done)
}

func (c *Client) async(op, method, url string, body []byte, done func(Result)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res := c.do(method, url, body)
		if res.Err != nil {
			logger.Warn("netclient_request_failed", "op", op, "url", url, "error", res.Err)
		} else if res.StatusCode >= 400 {
			logger.Warn("netclient_request_rejected", "op", op, "url", url, "status", res.StatusCode)
		}
		if done != nil {
			done(res)
		}
	}()
}

func (c *Client) do(method, url string, body []byte) Result {
	waitCtx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()
	if err := c.limiter.Wait(waitCtx); err != nil {
		return Result{Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	if len(body) > 0 {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return Result{Err: fmt.Errorf("%s %s: %w", method, url, err)}
	}
	return Result{
		StatusCode: resp.StatusCode(),
		Body:       append([]byte(nil), resp.Body()...),
	}
}

// Close cancels pending rate-limit waits and waits for in-flight
// requests to finish.
func (c *Client) Close() {
	c.cancel()
	c.wg.Wait()
}
