package services

import (
	"fmt"
	"strings"

	"vogueapi/models"

	"google.golang.org/genai"
)

// IllustrationAspectRatio is sent as the image request's aspect ratio.
const IllustrationAspectRatio = "3:4"

const stylistSystemInstruction = `You are a world-class fashion stylist. Recommend complete, wearable outfits and explain every choice in terms of the person's body type, complexion and the occasion. Respond only with JSON matching the provided schema.`

const photoAnalysisInstruction = `Analyze this person's photo for fashion styling. Classify their body type as one of: slim, athletic, average, curvy, plus-size. Classify their complexion as one of: fair, medium, olive, tan, deep. Suggest one regional style (for example Indian, Korean or American) that would suit their features. Use only the listed values for body type and complexion.`

// BuildRecommendationPrompt embeds every profile field; weather is included only when set.
func BuildRecommendationPrompt(p models.PreferenceProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest a complete outfit for a %s from the %s generation.\n", p.Gender, p.Generation)
	fmt.Fprintf(&b, "Occasion: %s\n", p.Occasion)
	fmt.Fprintf(&b, "Body type: %s\n", p.BodyType)
	fmt.Fprintf(&b, "Complexion: %s\n", p.Complexion)
	fmt.Fprintf(&b, "Preferred fabric: %s\n", p.Fabric)
	fmt.Fprintf(&b, "Cultural style or country: %s\n", p.CountryStyle)
	if weather := strings.TrimSpace(p.Weather); weather != "" {
		fmt.Fprintf(&b, "Current weather: %s\n", weather)
	}
	b.WriteString("\nList the specific items with the reason each one works for this body type and complexion, ")
	b.WriteString("give practical styling tips, a color palette, and a detailed image prompt that shows the outfit on a model.")
	return b.String()
}

func BuildIllustrationPrompt(imagePrompt string) string {
	return fmt.Sprintf(
		"A high-end fashion editorial photograph of: %s. Professional lighting, minimalist background, magazine cover quality.",
		strings.TrimSpace(imagePrompt),
	)
}

func RecommendationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"items": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"category": {Type: genai.TypeString},
						"item":     {Type: genai.TypeString},
						"reason":   {Type: genai.TypeString},
					},
					Required: []string{"category", "item", "reason"},
				},
			},
			"stylingTips": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"colorPalette": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"imagePrompt": {
				Type:        genai.TypeString,
				Description: "A highly descriptive prompt for an AI image generator to visualize this outfit on a model.",
			},
		},
		Required: []string{"title", "description", "items", "stylingTips", "colorPalette", "imagePrompt"},
	}
}

func enumValues[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

func PhotoAnalysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"bodyType":       {Type: genai.TypeString, Enum: enumValues(models.BodyTypes)},
			"complexion":     {Type: genai.TypeString, Enum: enumValues(models.Complexions)},
			"suggestedStyle": {Type: genai.TypeString},
		},
		Required: []string{"bodyType", "complexion", "suggestedStyle"},
	}
}
