// Package ner implements the remote entity-recognition client used by the
// NER detection strategy. It owns every transport concern the strategy
// itself must not know about: HTTP, circuit breaking, retry, rate limiting
// and a startup liveness probe.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/neurondb/NeuronIP/api/internal/detectstrategy"
	"github.com/neurondb/NeuronIP/api/internal/health"
	"github.com/neurondb/NeuronIP/api/internal/logging"
	"github.com/neurondb/NeuronIP/api/internal/resilience"
)

/* Config holds the remote NER service's connection parameters. */
type Config struct {
	BaseURL       string
	RequestTimeout time.Duration
	RateLimitRPS  float64
	RateLimitBurst int
}

func DefaultConfig() Config {
	return Config{
		RequestTimeout: 5 * time.Second,
		RateLimitRPS:   20,
		RateLimitBurst: 40,
	}
}

/* Client implements detectstrategy.EntityDetector against a remote HTTP
NER service, wrapped in a circuit breaker and retry policy
(internal/resilience). A startup liveness probe backed by internal/health
gates Available() until the service has answered at least once. */
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *resilience.CircuitBreaker
	retry   *resilience.RetryConfig
	limiter *rate.Limiter
	log     *logging.Logger

	checker *health.Checker
	alive   bool
}

var _ detectstrategy.EntityDetector = (*Client)(nil)

func New(cfg Config, log *logging.Logger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = DefaultConfig().RateLimitRPS
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = DefaultConfig().RateLimitBurst
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		breaker: resilience.NewCircuitBreaker(resilience.ForNERService().ToConfig()),
		retry:   resilience.ExponentialBackoffRetryConfig(3),
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     log,
	}

	c.checker = health.NewChecker()
	c.checker.RegisterCheck(health.NewLivenessCheck(c.probe))
	return c
}

/* Probe runs the startup liveness check once and records the result so
later Available() calls don't re-probe per call. */
func (c *Client) Probe(ctx context.Context) bool {
	results := c.checker.CheckAll(ctx)
	status := c.checker.AggregateStatus(results)
	c.alive = status == health.StatusHealthy
	return c.alive
}

func (c *Client) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

/* Available reports whether the remote service is currently usable: the
startup probe must have succeeded and the circuit breaker must not be open. */
func (c *Client) Available() bool {
	return c.alive && c.breaker.GetState() != resilience.StateOpen
}

type detectRequest struct {
	Samples []string `json:"samples"`
}

type detectResponseItem struct {
	Text  string  `json:"text"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

type detectResponse struct {
	Results [][]detectResponseItem `json:"results"`
}

/* DetectEntities posts the given samples to the remote service, protected
by a circuit breaker, bounded retries and a token-bucket rate limiter per
call. A transient failure surfaces as an error to the caller; the caller
(detectstrategy.NER) treats that as "no candidates", not a job failure. */
func (c *Client) DetectEntities(ctx context.Context, samples []string) ([][]detectstrategy.DetectedEntity, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ner rate limiter: %w", err)
	}

	var out [][]detectstrategy.DetectedEntity
	err := c.breaker.Execute(ctx, func() error {
		return resilience.Retry(ctx, c.retry, func() error {
			result, err := c.postDetect(ctx, samples)
			if err != nil {
				return err
			}
			out = result
			return nil
		})
	})
	if err != nil {
		if c.log != nil {
			c.log.WithError(err).Error("ner detect request failed")
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) postDetect(ctx context.Context, samples []string) ([][]detectstrategy.DetectedEntity, error) {
	body, err := json.Marshal(detectRequest{Samples: samples})
	if err != nil {
		return nil, fmt.Errorf("marshal ner request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ner request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ner service returned %d: %s", resp.StatusCode, string(payload))
	}

	var decoded detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode ner response: %w", err)
	}

	out := make([][]detectstrategy.DetectedEntity, len(decoded.Results))
	for i, sampleEntities := range decoded.Results {
		entities := make([]detectstrategy.DetectedEntity, len(sampleEntities))
		for j, e := range sampleEntities {
			entities[j] = detectstrategy.DetectedEntity{Text: e.Text, Type: e.Type, Score: e.Score}
		}
		out[i] = entities
	}
	return out, nil
}
