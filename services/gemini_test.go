package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vogueapi/models"
	"vogueapi/resilience"
	"vogueapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type generatorCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

// fakeGenerator answers each call with the next scripted response or error.
type fakeGenerator struct {
	mu        sync.Mutex
	responses []*genai.GenerateContentResponse
	errs      []error
	block     bool
	calls     []generatorCall
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	idx := len(f.calls)
	f.calls = append(f.calls, generatorCall{model: model, contents: contents, config: config})
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return nil, errors.New("no scripted response")
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 20},
	}
}

func imageResponse(data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{
				{Text: "Here is the outfit."},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: data}},
			}},
		}},
	}
}

const weddingRecommendationJSON = `{
  "title": "Crimson Silk Celebration",
  "description": "A flowing silk lehenga that flatters curves in the heat.",
  "items": [
    {"category": "Top", "item": "Silk choli", "reason": "Light against warm skin"},
    {"category": "Bottom", "item": "Crimson lehenga skirt", "reason": "Cinches the waist"}
  ],
  "stylingTips": ["Pair with gold jhumkas"],
  "colorPalette": ["#B22222", "#FFD700"],
  "imagePrompt": "A curvy woman with olive skin in a crimson silk lehenga at a sunny wedding"
}`

func weddingProfile(t *testing.T) models.PreferenceProfile {
	p := models.DefaultProfile()
	var err error
	p, err = p.WithOccasion("wedding")
	require.NoError(t, err)
	p, err = p.WithGeneration("millennial")
	require.NoError(t, err)
	p, err = p.WithBodyType("curvy")
	require.NoError(t, err)
	p, err = p.WithComplexion("olive")
	require.NoError(t, err)
	p, err = p.WithFabric("silk")
	require.NoError(t, err)
	return p.WithCountryStyle("Indian").WithWeather("Sunny 28°C")
}

func TestGenerateRecommendation(t *testing.T) {
	gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{textResponse(weddingRecommendationJSON)}}
	svc := &StylistService{Client: gen}

	rec, err := svc.GenerateRecommendation(context.Background(), weddingProfile(t))
	require.NoError(t, err)

	assert.Equal(t, "Crimson Silk Celebration", rec.Title)
	require.Len(t, rec.Items, 2)
	assert.Equal(t, "Crimson lehenga skirt", rec.Items[1].Item)
	assert.Equal(t, []string{"#B22222", "#FFD700"}, rec.ColorPalette)
	assert.NotEmpty(t, rec.ImagePrompt)

	require.Len(t, gen.calls, 1)
	call := gen.calls[0]
	assert.Equal(t, Flash3Preview.String(), call.model)
	assert.Equal(t, "application/json", call.config.ResponseMIMEType)
	assert.ElementsMatch(t, []string{"title", "description", "items", "stylingTips", "colorPalette", "imagePrompt"}, call.config.ResponseSchema.Required)

	prompt := call.contents[0].Parts[0].Text
	for _, want := range []string{"wedding", "female", "millennial", "curvy", "olive", "silk", "Indian", "Sunny 28°C"} {
		assert.Contains(t, prompt, want)
	}
}

func TestRecommendationPromptOmitsMissingWeather(t *testing.T) {
	prompt := BuildRecommendationPrompt(models.DefaultProfile())

	assert.NotContains(t, prompt, "weather")
	assert.Contains(t, prompt, "Parisian Chic")
}

func TestGenerateRecommendationRejectsTruncatedJSON(t *testing.T) {
	gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{textResponse(`{"title": "Half`)}}
	svc := &StylistService{Client: gen}

	rec, err := svc.GenerateRecommendation(context.Background(), models.DefaultProfile())

	assert.Nil(t, rec)
	require.ErrorIs(t, err, models.ErrGeneration)
	require.ErrorIs(t, err, models.ErrSchemaViolation)
}

func TestGenerateRecommendationTransportFailure(t *testing.T) {
	gen := &fakeGenerator{errs: []error{errors.New("connection reset by peer")}}
	svc := &StylistService{Client: gen}

	_, err := svc.GenerateRecommendation(context.Background(), models.DefaultProfile())

	require.ErrorIs(t, err, models.ErrGeneration)
	require.ErrorIs(t, err, models.ErrTransport)
	assert.False(t, errors.Is(err, models.ErrSchemaViolation))
}

func TestGenerateRecommendationBlockedPrompt(t *testing.T) {
	resp := textResponse(weddingRecommendationJSON)
	resp.PromptFeedback = &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety}
	svc := &StylistService{Client: &fakeGenerator{responses: []*genai.GenerateContentResponse{resp}}}

	_, err := svc.GenerateRecommendation(context.Background(), models.DefaultProfile())

	require.ErrorIs(t, err, models.ErrSchemaViolation)
}

func TestGenerateRecommendationTimesOut(t *testing.T) {
	gen := &fakeGenerator{block: true}
	svc := &StylistService{
		Client:                gen,
		Executor:              resilience.NewExecutor(resilience.DefaultConfig()),
		RecommendationTimeout: 20 * time.Millisecond,
	}

	_, err := svc.GenerateRecommendation(context.Background(), models.DefaultProfile())

	require.ErrorIs(t, err, models.ErrTransport)
	assert.True(t, resilience.IsTimeout(err))
	assert.Len(t, gen.calls, 1)
}

func TestCancelledCallsDoNotOpenCircuit(t *testing.T) {
	executor := resilience.NewExecutor(resilience.Config{
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})
	svc := &StylistService{Client: &fakeGenerator{block: true}, Executor: executor}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 10; i++ {
		_, err := svc.GenerateRecommendation(cancelled, models.DefaultProfile())
		require.ErrorIs(t, err, context.Canceled)
	}
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(5*time.Millisecond, cancel)
		_, err := svc.GenerateRecommendation(ctx, models.DefaultProfile())
		require.ErrorIs(t, err, context.Canceled)
		cancel()
	}

	svc.Client = &fakeGenerator{responses: []*genai.GenerateContentResponse{textResponse(weddingRecommendationJSON)}}
	rec, err := svc.GenerateRecommendation(context.Background(), models.DefaultProfile())
	require.NoError(t, err)
	assert.Equal(t, "Crimson Silk Celebration", rec.Title)
}

func TestAnalyzePhoto(t *testing.T) {
	gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{
		textResponse(`{"bodyType": "curvy", "complexion": "tan", "suggestedStyle": "Korean"}`),
	}}
	svc := &StylistService{Client: gen}

	result, err := svc.AnalyzePhoto(context.Background(), test.FakePNG(64, 64), "image/png")
	require.NoError(t, err)

	assert.Equal(t, models.PhotoAnalysisResult{BodyType: models.BodyTypeCurvy, Complexion: models.ComplexionTan, SuggestedStyle: "Korean"}, *result)

	require.Len(t, gen.calls, 1)
	parts := gen.calls[0].contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/jpeg", parts[0].InlineData.MIMEType)
	assert.Equal(t, enumValues(models.BodyTypes), gen.calls[0].config.ResponseSchema.Properties["bodyType"].Enum)
}

func TestAnalyzePhotoRejectsValueOutsideEnum(t *testing.T) {
	gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{
		textResponse(`{"bodyType": "petite", "complexion": "tan", "suggestedStyle": "Korean"}`),
	}}
	svc := &StylistService{Client: gen}

	result, err := svc.AnalyzePhoto(context.Background(), test.FakePNG(16, 16), "image/png")

	assert.Nil(t, result)
	require.ErrorIs(t, err, models.ErrAnalysis)
	require.ErrorIs(t, err, models.ErrSchemaViolation)
}

func TestAnalyzePhotoRejectsUndecodableImage(t *testing.T) {
	gen := &fakeGenerator{}
	svc := &StylistService{Client: gen}

	_, err := svc.AnalyzePhoto(context.Background(), []byte("definitely not an image"), "image/jpeg")

	require.ErrorIs(t, err, models.ErrAnalysis)
	require.ErrorIs(t, err, models.ErrInvalidImage)
	assert.Empty(t, gen.calls)
}

func TestGenerateIllustration(t *testing.T) {
	png := test.FakePNG(8, 8)
	gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{imageResponse(png)}}
	svc := &StylistService{Client: gen}

	image, ok := svc.GenerateIllustration(context.Background(), "A woman in a crimson lehenga")

	require.True(t, ok)
	assert.Equal(t, png, image.Data)
	assert.Equal(t, "image/png", image.MIMEType)
	assert.Equal(t, Flash25Image.String(), gen.calls[0].model)
	require.NotNil(t, gen.calls[0].config.ImageConfig)
	assert.Equal(t, "3:4", gen.calls[0].config.ImageConfig.AspectRatio)
	assert.Contains(t, gen.calls[0].contents[0].Parts[0].Text, "fashion editorial photograph of: A woman in a crimson lehenga")
	assert.Equal(t, []string{"TEXT", "IMAGE"}, gen.calls[0].config.ResponseModalities)
}

func TestGenerateIllustrationNeverFails(t *testing.T) {
	gen := &fakeGenerator{
		errs:      []error{errors.New("quota exceeded"), errors.New("quota exceeded")},
		responses: []*genai.GenerateContentResponse{nil, nil, textResponse("I cannot draw that.")},
	}
	svc := &StylistService{Client: gen}

	for i := 0; i < 3; i++ {
		image, ok := svc.GenerateIllustration(context.Background(), "same prompt")
		assert.False(t, ok)
		assert.True(t, image.Empty())
	}
	assert.Len(t, gen.calls, 3)

	_, ok := svc.GenerateIllustration(context.Background(), "   ")
	assert.False(t, ok)
	assert.Len(t, gen.calls, 3)
}

func TestUnconfiguredClientIsTransportError(t *testing.T) {
	svc := &StylistService{}

	_, err := svc.GenerateRecommendation(context.Background(), models.DefaultProfile())

	require.ErrorIs(t, err, models.ErrTransport)
}
