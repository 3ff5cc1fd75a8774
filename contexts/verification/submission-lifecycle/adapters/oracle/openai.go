package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	domainerrors "bountyfi/contexts/verification/submission-lifecycle/domain/errors"
	"bountyfi/internal/shared/poll"

	"github.com/sashabaranov/go-openai"
)

const scoringSystemPrompt = "You are a strict task-verification judge. " +
	"Given a photo and the campaign rubric, reply with a single integer from 0 to 100: " +
	"the confidence that the photo is genuine evidence of the described task. Reply with the number only."

type Config struct {
	APIKey       string
	Model        string
	PollInterval time.Duration
	MaxAttempts  int
}

// Adapter scores evidence photos through the OpenAI vision API. Transient
// API failures (rate limits, 5xx) are retried on a fixed interval up to the
// configured attempt budget; exhausting the budget reports OracleTimeout.
type Adapter struct {
	client       *openai.Client
	model        string
	pollInterval time.Duration
	maxAttempts  int
	logger       *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("oracle api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client:       openai.NewClient(cfg.APIKey),
		model:        model,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		logger:       logger,
	}, nil
}

func (a *Adapter) Score(ctx context.Context, evidenceURL string, rubric string) (int, error) {
	evidenceURL = strings.TrimSpace(evidenceURL)
	if evidenceURL == "" {
		return 0, fmt.Errorf("%w: empty evidence url", domainerrors.ErrOracleUnavailable)
	}

	request := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: scoringSystemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Campaign rubric:\n" + rubric,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    evidenceURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		MaxTokens:   8,
		Temperature: 0,
	}

	var content string
	err := poll.UntilTerminal(ctx, a.pollInterval, a.maxAttempts, func(ctx context.Context) (bool, error) {
		response, err := a.client.CreateChatCompletion(ctx, request)
		if err != nil {
			if isRetryable(err) {
				a.logger.Warn("oracle request transiently failed; retrying",
					"event", "oracle_request_retry",
					"module", "verification/submission-lifecycle",
					"layer", "adapter",
					"error", err.Error(),
				)
				return false, nil
			}
			return false, fmt.Errorf("%w: %v", domainerrors.ErrOracleUnavailable, err)
		}
		if len(response.Choices) == 0 {
			return false, fmt.Errorf("%w: empty completion", domainerrors.ErrOracleUnavailable)
		}
		content = strings.TrimSpace(response.Choices[0].Message.Content)
		return true, nil
	})
	if err != nil {
		if errors.Is(err, poll.ErrMaxAttempts) {
			return 0, domainerrors.ErrOracleTimeout
		}
		return 0, err
	}

	confidence, err := parseConfidence(content)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domainerrors.ErrOracleUnavailable, err)
	}
	return confidence, nil
}

func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return false
}

func parseConfidence(content string) (int, error) {
	// Models occasionally decorate the number; keep the leading digits.
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if len(fields) == 0 {
		return 0, fmt.Errorf("no integer in oracle reply %q", content)
	}
	value, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("parse oracle reply %q: %v", content, err)
	}
	if value < 0 || value > 100 {
		return 0, fmt.Errorf("oracle confidence %d out of range", value)
	}
	return value, nil
}
