package models

import (
	"encoding/base64"
	"fmt"
)

type OutfitItem struct {
	Category string `json:"category"`
	Item     string `json:"item"`
	Reason   string `json:"reason"`
}

// OutfitRecommendation is produced only from a fully decoded provider response.
type OutfitRecommendation struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Items        []OutfitItem `json:"items"`
	StylingTips  []string     `json:"styling_tips"`
	ColorPalette []string     `json:"color_palette"`
	ImagePrompt  string       `json:"image_prompt"`
}

type PhotoAnalysisResult struct {
	BodyType       BodyType   `json:"body_type"`
	Complexion     Complexion `json:"complexion"`
	SuggestedStyle string     `json:"suggested_style"`
}

// OutfitImage is the illustration for a recommendation. The zero value means no image.
type OutfitImage struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
}

func (i OutfitImage) Empty() bool {
	return len(i.Data) == 0
}

func (i OutfitImage) DataURL() string {
	if i.Empty() {
		return ""
	}
	mime := i.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(i.Data))
}
