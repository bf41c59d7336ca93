package test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"

	"vogueapi/models"
)

// StylistMock is a scripted StylistProvider. Hooks, when set, run before the canned answer.
type StylistMock struct {
	mu sync.Mutex

	Recommendation    *models.OutfitRecommendation
	RecommendationErr error
	Analysis          *models.PhotoAnalysisResult
	AnalysisErr       error
	Image             models.OutfitImage

	BeforeRecommendation func(ctx context.Context)
	BeforeAnalysis       func(ctx context.Context)

	RecommendationCalls int
	AnalysisCalls       int
	IllustrationCalls   int
	IllustrationPrompts []string
	Profiles            []models.PreferenceProfile
}

func (m *StylistMock) GenerateRecommendation(ctx context.Context, profile models.PreferenceProfile) (*models.OutfitRecommendation, error) {
	if m.BeforeRecommendation != nil {
		m.BeforeRecommendation(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecommendationCalls++
	m.Profiles = append(m.Profiles, profile)
	if err := ctx.Err(); err != nil {
		return nil, models.WrapError(models.ErrGeneration, "generate recommendation", errors.Join(models.ErrTransport, err))
	}
	if m.RecommendationErr != nil {
		return nil, m.RecommendationErr
	}
	rec := *m.Recommendation
	return &rec, nil
}

func (m *StylistMock) AnalyzePhoto(ctx context.Context, imageData []byte, mimeType string) (*models.PhotoAnalysisResult, error) {
	if m.BeforeAnalysis != nil {
		m.BeforeAnalysis(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnalysisCalls++
	if m.AnalysisErr != nil {
		return nil, m.AnalysisErr
	}
	result := *m.Analysis
	return &result, nil
}

func (m *StylistMock) GenerateIllustration(ctx context.Context, prompt string) (models.OutfitImage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IllustrationCalls++
	m.IllustrationPrompts = append(m.IllustrationPrompts, prompt)
	if m.Image.Empty() {
		return models.OutfitImage{}, false
	}
	return m.Image, true
}

func (m *StylistMock) Calls() (recommendation, analysis, illustration int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RecommendationCalls, m.AnalysisCalls, m.IllustrationCalls
}

func FakeRecommendation(title string) *models.OutfitRecommendation {
	return &models.OutfitRecommendation{
		Title:       title,
		Description: "A draped silk look for an evening ceremony.",
		Items: []models.OutfitItem{
			{Category: "Top", Item: "Silk blouse", Reason: "Flows over curves"},
			{Category: "Bottom", Item: "Lehenga skirt", Reason: "Defines the waist"},
		},
		StylingTips:  []string{"Add gold jhumkas"},
		ColorPalette: []string{"#8B0000", "gold"},
		ImagePrompt:  "A woman in a deep red silk lehenga at a sunny outdoor wedding",
	}
}

// FakePNG encodes a small solid image, large enough to exercise resizing when w or h is big.
func FakePNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
