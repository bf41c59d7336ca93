package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vogueapi/config"
	"vogueapi/metrics"
	"vogueapi/models"
	"vogueapi/resilience"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// LLMModelName is the Gemini model used for a call.
type LLMModelName int32

const (
	Flash3Preview LLMModelName = iota
	Flash25
	Flash25Image
)

func (t LLMModelName) String() string {
	switch t {
	case Flash3Preview:
		return "gemini-3-flash-preview"
	case Flash25:
		return "gemini-2.5-flash"
	case Flash25Image:
		return "gemini-2.5-flash-image"
	default:
		return "gemini-2.5-flash"
	}
}

const (
	operationRecommendation = "recommendation"
	operationAnalysis       = "analysis"
	operationIllustration   = "illustration"
)

func floatPointer(f float32) *float32 {
	return &f
}

// ContentGenerator is the slice of the genai client used here. *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// StylistProvider is the AI gateway consumed by sessions.
type StylistProvider interface {
	GenerateRecommendation(ctx context.Context, profile models.PreferenceProfile) (*models.OutfitRecommendation, error)
	AnalyzePhoto(ctx context.Context, imageData []byte, mimeType string) (*models.PhotoAnalysisResult, error)
	// GenerateIllustration never fails; ok is false when no image was produced.
	GenerateIllustration(ctx context.Context, prompt string) (image models.OutfitImage, ok bool)
}

type LLMResponse struct {
	Response           string               `json:"response"`
	Images             []models.OutfitImage `json:"images,omitempty"`
	InputTokenCount    int32                `json:"input_token_count"`
	Thoughts           string               `json:"thoughts"`
	ThoughtsTokenCount int32                `json:"thoughts_token_count"`
	OutputTokenCount   int32                `json:"output_token_count"`
	TotalTokenCount    int32                `json:"total_token_count"`
}

type StylistService struct {
	Client   ContentGenerator
	Executor *resilience.Executor
	Metrics  *metrics.Registry

	TextModel  string
	ImageModel string

	RecommendationTimeout time.Duration
	AnalysisTimeout       time.Duration
	IllustrationTimeout   time.Duration
}

func NewStylistService(ctx context.Context, cfg config.Provider, executor *resilience.Executor, registry *metrics.Registry) (*StylistService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &StylistService{
		Client:                client.Models,
		Executor:              executor,
		Metrics:               registry,
		TextModel:             cfg.TextModel,
		ImageModel:            cfg.ImageModel,
		RecommendationTimeout: cfg.RecommendationTimeout,
		AnalysisTimeout:       cfg.AnalysisTimeout,
		IllustrationTimeout:   cfg.IllustrationTimeout,
	}, nil
}

func (s *StylistService) textModel() string {
	if s.TextModel == "" {
		return Flash3Preview.String()
	}
	return s.TextModel
}

func (s *StylistService) imageModel() string {
	if s.ImageModel == "" {
		return Flash25Image.String()
	}
	return s.ImageModel
}

func (s *StylistService) GenerateRecommendation(ctx context.Context, profile models.PreferenceProfile) (*models.OutfitRecommendation, error) {
	const op = "generate recommendation"
	if err := profile.Validate(); err != nil {
		return nil, models.WrapError(models.ErrGeneration, op, err)
	}

	model := s.textModel()
	start := time.Now()
	resp, err := s.generate(ctx, operationRecommendation, model, s.RecommendationTimeout,
		[]*genai.Content{{Parts: []*genai.Part{{Text: BuildRecommendationPrompt(profile)}}}},
		&genai.GenerateContentConfig{
			ResponseMIMEType:  "application/json",
			ResponseSchema:    RecommendationSchema(),
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: stylistSystemInstruction}}},
			Temperature:       floatPointer(0.9),
			CandidateCount:    1,
		})
	if err != nil {
		s.record(operationRecommendation, outcomeOf(err), start)
		return nil, models.WrapError(models.ErrGeneration, op, err)
	}

	recommendation, err := DecodeRecommendation(resp.Response)
	if err != nil {
		s.record(operationRecommendation, outcomeOf(err), start)
		log.Ctx(ctx).Warn().Err(err).Str("model", model).Msg("recommendation response rejected")
		return nil, models.WrapError(models.ErrGeneration, op, err)
	}
	s.record(operationRecommendation, "ok", start)
	return recommendation, nil
}

func (s *StylistService) AnalyzePhoto(ctx context.Context, imageData []byte, mimeType string) (*models.PhotoAnalysisResult, error) {
	const op = "analyze photo"
	normalized, normalizedMIME, err := NormalizePhoto(imageData, mimeType)
	if err != nil {
		return nil, models.WrapError(models.ErrAnalysis, op, err)
	}

	model := s.textModel()
	start := time.Now()
	resp, err := s.generate(ctx, operationAnalysis, model, s.AnalysisTimeout,
		[]*genai.Content{{Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: normalizedMIME, Data: normalized}},
			{Text: photoAnalysisInstruction},
		}}},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   PhotoAnalysisSchema(),
			Temperature:      floatPointer(0.2),
			CandidateCount:   1,
		})
	if err != nil {
		s.record(operationAnalysis, outcomeOf(err), start)
		return nil, models.WrapError(models.ErrAnalysis, op, err)
	}

	result, err := DecodePhotoAnalysis(resp.Response)
	if err != nil {
		s.record(operationAnalysis, outcomeOf(err), start)
		log.Ctx(ctx).Warn().Err(err).Str("model", model).Msg("photo analysis response rejected")
		return nil, models.WrapError(models.ErrAnalysis, op, err)
	}
	s.record(operationAnalysis, "ok", start)
	return result, nil
}

func (s *StylistService) GenerateIllustration(ctx context.Context, prompt string) (models.OutfitImage, bool) {
	if strings.TrimSpace(prompt) == "" {
		return models.OutfitImage{}, false
	}

	model := s.imageModel()
	start := time.Now()
	resp, err := s.generate(ctx, operationIllustration, model, s.IllustrationTimeout,
		[]*genai.Content{{Parts: []*genai.Part{{Text: BuildIllustrationPrompt(prompt)}}}},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig:        &genai.ImageConfig{AspectRatio: IllustrationAspectRatio},
			CandidateCount:     1,
		})
	if err != nil {
		s.record(operationIllustration, outcomeOf(err), start)
		log.Ctx(ctx).Warn().Err(err).Str("model", model).Msg("illustration failed, continuing without image")
		return models.OutfitImage{}, false
	}
	if len(resp.Images) == 0 {
		s.record(operationIllustration, "no_image", start)
		log.Ctx(ctx).Info().Str("model", model).Msg("provider returned no illustration")
		return models.OutfitImage{}, false
	}
	s.record(operationIllustration, "ok", start)
	return resp.Images[0], true
}

// generate runs one provider call through the executor and unpacks the response.
// Provider errors come back wrapped in ErrTransport, unusable envelopes in ErrSchemaViolation.
func (s *StylistService) generate(
	ctx context.Context,
	operation, model string,
	timeout time.Duration,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*LLMResponse, error) {
	if s.Client == nil {
		return nil, fmt.Errorf("%w: provider client is not configured", models.ErrTransport)
	}

	var result *genai.GenerateContentResponse
	call := func(callCtx context.Context) error {
		var err error
		result, err = s.Client.GenerateContent(callCtx, model, contents, cfg)
		return err
	}

	var err error
	if s.Executor != nil {
		err = s.Executor.Execute(ctx, operation, timeout, call, providerFailure)
	} else {
		callCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		err = call(callCtx)
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) && !resilience.IsCircuitOpen(err) {
			sentry.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("operation", operation)
				scope.SetTag("model", model)
				sentry.CaptureException(err)
			})
		}
		return nil, fmt.Errorf("%w: %w", models.ErrTransport, err)
	}

	response, err := unpackResponse(result, operation == operationIllustration)
	if err != nil {
		return nil, err
	}
	if s.Metrics != nil {
		s.Metrics.RecordTokenUsage(operation, model, response.InputTokenCount, response.OutputTokenCount)
	}
	return response, nil
}

// providerFailure keeps caller cancellations (cancelled submits, expired sessions) out of
// the breaker counts.
func providerFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}

func unpackResponse(result *genai.GenerateContentResponse, wantImages bool) (*LLMResponse, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: empty response envelope", models.ErrSchemaViolation)
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked: %s", models.ErrSchemaViolation, result.PromptFeedback.BlockReason)
	}

	withThoughts, err := GetFirstCandidateTextWithThoughts(result)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrSchemaViolation, err)
	}
	response := &LLMResponse{
		Response: withThoughts.Text,
		Thoughts: withThoughts.Thoughts,
	}
	if wantImages {
		images, err := GetAllInlineImages(result)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrSchemaViolation, err)
		}
		response.Images = images
	}
	if result.UsageMetadata != nil {
		response.InputTokenCount = result.UsageMetadata.PromptTokenCount
		response.OutputTokenCount = result.UsageMetadata.CandidatesTokenCount
		response.ThoughtsTokenCount = result.UsageMetadata.ThoughtsTokenCount
		response.TotalTokenCount = result.UsageMetadata.TotalTokenCount
	}
	return response, nil
}

func (s *StylistService) record(operation, outcome string, start time.Time) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.RecordProviderCall(operation, outcome, time.Since(start))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case resilience.IsCircuitOpen(err):
		return "circuit_open"
	case resilience.IsTimeout(err):
		return "timeout"
	case errors.Is(err, models.ErrSchemaViolation):
		return "schema_violation"
	default:
		return "transport"
	}
}

type ResponseWithThoughts struct {
	Thoughts string
	Text     string
}

// GetAllInlineImages collects every inline image part across candidates, in order.
func GetAllInlineImages(result *genai.GenerateContentResponse) ([]models.OutfitImage, error) {
	if result == nil {
		return nil, fmt.Errorf("cannot read images from empty response")
	}

	var images []models.OutfitImage
	for _, cand := range result.Candidates {
		for _, rating := range cand.SafetyRatings {
			if rating.Blocked {
				return nil, fmt.Errorf("content blocked by safety setting: %s", rating.Category)
			}
		}
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil {
				continue
			}
			if strings.HasPrefix(part.InlineData.MIMEType, "image/") && len(part.InlineData.Data) > 0 {
				images = append(images, models.OutfitImage{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				})
			}
		}
	}
	return images, nil
}

func GetFirstCandidateTextWithThoughts(result *genai.GenerateContentResponse) (*ResponseWithThoughts, error) {
	var thinkingContent string
	for _, c := range result.Candidates {
		if c.FinishReason != "" {
			log.Debug().Str("finish_reason", string(c.FinishReason)).Str("finish_message", c.FinishMessage).Msg("candidate finished")
		}
		for _, rating := range c.SafetyRatings {
			if rating.Blocked {
				return nil, fmt.Errorf("content blocked by safety setting: %s", rating.Category)
			}
		}
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if part != nil && part.Thought && part.Text != "" {
				thinkingContent = part.Text
			}
		}
	}
	return &ResponseWithThoughts{
		Thoughts: thinkingContent,
		Text:     result.Text(),
	}, nil
}
