package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"vogueapi/models"
)

type rawOutfitItem struct {
	Category *string `json:"category"`
	Item     *string `json:"item"`
	Reason   *string `json:"reason"`
}

type rawRecommendation struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Items        *[]rawOutfitItem `json:"items"`
	StylingTips  *[]string        `json:"stylingTips"`
	ColorPalette *[]string        `json:"colorPalette"`
	ImagePrompt  *string          `json:"imagePrompt"`
}

type rawPhotoAnalysis struct {
	BodyType       *string `json:"bodyType"`
	Complexion     *string `json:"complexion"`
	SuggestedStyle *string `json:"suggestedStyle"`
}

func schemaViolation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrSchemaViolation, fmt.Sprintf(format, args...))
}

// cleanAIResponseText strips markdown code fences some models wrap around JSON.
func cleanAIResponseText(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}

// DecodeRecommendation accepts only a payload carrying every required key.
// A recommendation is returned whole or not at all.
func DecodeRecommendation(text string) (*models.OutfitRecommendation, error) {
	payload := cleanAIResponseText(text)
	if payload == "" {
		return nil, schemaViolation("empty recommendation payload")
	}

	var raw rawRecommendation
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, schemaViolation("recommendation is not valid JSON: %v", err)
	}

	missing := []string{}
	if raw.Title == nil {
		missing = append(missing, "title")
	}
	if raw.Description == nil {
		missing = append(missing, "description")
	}
	if raw.Items == nil {
		missing = append(missing, "items")
	}
	if raw.StylingTips == nil {
		missing = append(missing, "stylingTips")
	}
	if raw.ColorPalette == nil {
		missing = append(missing, "colorPalette")
	}
	if raw.ImagePrompt == nil {
		missing = append(missing, "imagePrompt")
	}
	if len(missing) > 0 {
		return nil, schemaViolation("recommendation missing %s", strings.Join(missing, ", "))
	}
	if len(*raw.Items) == 0 {
		return nil, schemaViolation("recommendation has no items")
	}
	if strings.TrimSpace(*raw.ImagePrompt) == "" {
		return nil, schemaViolation("recommendation has an empty imagePrompt")
	}

	items := make([]models.OutfitItem, 0, len(*raw.Items))
	for i, item := range *raw.Items {
		if item.Category == nil || item.Item == nil || item.Reason == nil {
			return nil, schemaViolation("item %d is missing category, item or reason", i)
		}
		items = append(items, models.OutfitItem{
			Category: *item.Category,
			Item:     *item.Item,
			Reason:   *item.Reason,
		})
	}

	return &models.OutfitRecommendation{
		Title:        *raw.Title,
		Description:  *raw.Description,
		Items:        items,
		StylingTips:  append([]string{}, *raw.StylingTips...),
		ColorPalette: append([]string{}, *raw.ColorPalette...),
		ImagePrompt:  *raw.ImagePrompt,
	}, nil
}

// DecodePhotoAnalysis rejects out-of-set body types and complexions instead of coercing them.
func DecodePhotoAnalysis(text string) (*models.PhotoAnalysisResult, error) {
	payload := cleanAIResponseText(text)
	if payload == "" {
		return nil, schemaViolation("empty analysis payload")
	}

	var raw rawPhotoAnalysis
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, schemaViolation("analysis is not valid JSON: %v", err)
	}
	if raw.BodyType == nil || raw.Complexion == nil || raw.SuggestedStyle == nil {
		return nil, schemaViolation("analysis missing bodyType, complexion or suggestedStyle")
	}

	bodyType := models.BodyType(*raw.BodyType)
	if !bodyType.Valid() {
		return nil, schemaViolation("bodyType %q is not allowed", *raw.BodyType)
	}
	complexion := models.Complexion(*raw.Complexion)
	if !complexion.Valid() {
		return nil, schemaViolation("complexion %q is not allowed", *raw.Complexion)
	}
	style := strings.TrimSpace(*raw.SuggestedStyle)
	if style == "" {
		return nil, schemaViolation("suggestedStyle is empty")
	}

	return &models.PhotoAnalysisResult{
		BodyType:       bodyType,
		Complexion:     complexion,
		SuggestedStyle: style,
	}, nil
}
