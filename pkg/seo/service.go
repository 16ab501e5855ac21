// Package seo generates SEO copy for product records via the model
// collaborator, behind the same resilience chain as the query engine:
// per-user rate limit, circuit breaker, bounded retry.
package seo

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cercalo-ai/cercalo-engine/pkg/llm"
	"github.com/cercalo-ai/cercalo-engine/pkg/retry"
)

const (
	descriptionTemperature = 0.7
	descriptionMaxTokens   = 600

	metaTemperature = 0.5
	metaMaxTokens   = 300

	translateTemperature = 0.3
	translateMaxTokens   = 800
)

// ProductInfo is the product data fed into the prompts.
type ProductInfo struct {
	Name        string
	Category    string
	Description string
	Price       float64
}

// MetaTags is the structured meta-tag output.
type MetaTags struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Service generates SEO content. Creative tasks run at a higher
// temperature than the query engine's translation calls.
type Service struct {
	client   llm.Client
	limiter  *llm.RateLimiter
	breaker  *llm.CircuitBreaker
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewService creates an SEO service sharing the engine's resilience
// controls.
func NewService(client llm.Client, limiter *llm.RateLimiter, breaker *llm.CircuitBreaker, retryCfg *retry.Config, logger *zap.Logger) *Service {
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	return &Service{
		client:   client,
		limiter:  limiter,
		breaker:  breaker,
		retryCfg: retryCfg,
		logger:   logger.Named("seo"),
	}
}

// GenerateDescription writes a product description optimized for search
// engines.
func (s *Service) GenerateDescription(ctx context.Context, userID string, product ProductInfo) (string, error) {
	prompt := fmt.Sprintf(
		"Write an SEO-optimized product description.\n\nProduct: %s\nCategory: %s\nPrice: %.2f\nCurrent description: %s\n\nKeep it under 150 words, natural tone, include the product name once in the first sentence.",
		product.Name, product.Category, product.Price, product.Description)

	response, err := s.complete(ctx, userID, prompt,
		"You are an e-commerce copywriter. Return only the description text, no headings.",
		descriptionTemperature, descriptionMaxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(llm.StripNoise(response)), nil
}

// GenerateMetaTags produces a title, meta description, and keyword list
// for the product page.
func (s *Service) GenerateMetaTags(ctx context.Context, userID string, product ProductInfo) (*MetaTags, error) {
	prompt := fmt.Sprintf(
		"Generate meta tags for a product page.\n\nProduct: %s\nCategory: %s\n\nReturn JSON: {\"title\": \"...\", \"description\": \"...\", \"keywords\": [\"...\"]}.\nTitle under 60 characters, description under 160 characters, 5-8 keywords.",
		product.Name, product.Category)

	response, err := s.complete(ctx, userID, prompt,
		"You are an SEO specialist. Return only valid JSON, no prose.",
		metaTemperature, metaMaxTokens)
	if err != nil {
		return nil, err
	}

	tags, err := llm.ParseJSONResponse[MetaTags](response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse meta tags: %w", err)
	}
	return &tags, nil
}

// Translate translates product copy into the target language, preserving
// tone and product names.
func (s *Service) Translate(ctx context.Context, userID, text, targetLanguage string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following product copy into %s. Keep product names and brand names untranslated.\n\n%s",
		targetLanguage, text)

	response, err := s.complete(ctx, userID, prompt,
		"You are a professional e-commerce translator. Return only the translation.",
		translateTemperature, translateMaxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(llm.StripNoise(response)), nil
}

// complete runs one model call behind the resilience chain. Only
// transient failures are retried; an open circuit fails fast.
func (s *Service) complete(ctx context.Context, userID, prompt, system string, temperature float64, maxTokens int) (string, error) {
	var out string
	err := retry.DoIfRetryable(ctx, s.retryCfg, func() error {
		if allowed, berr := s.breaker.Allow(); !allowed {
			return llm.NewError(llm.ErrorTypeEndpoint, berr.Error(), false, berr)
		}
		if lerr := s.limiter.Allow(ctx, userID); lerr != nil {
			return lerr
		}

		response, cerr := s.client.Complete(ctx, prompt, system, temperature, maxTokens)
		if cerr != nil {
			s.breaker.RecordFailure()
			s.logger.Warn("seo model call failed", zap.Error(cerr))
			return cerr
		}
		s.breaker.RecordSuccess()
		out = response
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
