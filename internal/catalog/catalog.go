// Package catalog holds the read-only presets the dashboard offers: scenes,
// credit packages and the branding printed into every generated image.
package catalog

import (
	"strings"

	"github.com/digkill/bizimage/internal/models"
)

const AppName = "BizImage.ai"

// Branding is the contact text the remote model is asked to render.
type Branding struct {
	Website  string
	WhatsApp string
}

func DefaultBranding() Branding {
	return Branding{
		Website:  "www.bizimage.ai",
		WhatsApp: "+62 812-3456-7890",
	}
}

var scenes = []models.SceneConfig{
	{
		ID:             models.SceneStudio,
		Label:          "Studio White",
		Description:    "Clean, professional white background with soft shadows",
		PromptModifier: "placed on a seamless white studio background, professional product photography, high key lighting, sharp focus, 4k",
		Icon:           "Box",
	},
	{
		ID:             models.SceneDesk,
		Label:          "Minimalist Desk",
		Description:    "Modern workspace environment",
		PromptModifier: "placed on a clean minimalist wooden desk, warm natural lighting, blurred office background, professional workspace aesthetic",
		Icon:           "Monitor",
	},
	{
		ID:             models.SceneOutdoor,
		Label:          "Outdoor Lifestyle",
		Description:    "Natural sunlight and nature vibes",
		PromptModifier: "placed outdoors in a sunny park, natural sunlight, bokeh nature background, lifestyle photography, vibrant colors",
		Icon:           "Sun",
	},
	{
		ID:             models.SceneSoft,
		Label:          "Soft Aesthetic",
		Description:    "Pastel tones and cozy feel",
		PromptModifier: "placed on a soft pastel fabric surface, cozy atmosphere, dreamy lighting, soft focus, aesthetic instagram style",
		Icon:           "Feather",
	},
	{
		ID:             models.SceneDark,
		Label:          "Dark Premium",
		Description:    "Luxurious dark moody atmosphere",
		PromptModifier: "placed on a dark slate surface, dramatic rim lighting, moody atmosphere, premium luxury aesthetic, cinematic",
		Icon:           "Moon",
	},
}

var packages = []models.CreditPackage{
	{ID: "starter", Label: "Starter", Credits: 30, PriceMinorUnits: 999, Currency: "USD"},
	{ID: "pro", Label: "Pro", Credits: 100, PriceMinorUnits: 2999, Currency: "USD", Popular: true},
	{ID: "agency", Label: "Agency", Credits: 500, PriceMinorUnits: 9999, Currency: "USD"},
}

// DefaultScene is preselected on the product tab.
const DefaultScene = models.SceneStudio

// Scenes returns a copy of the scene presets in display order.
func Scenes() []models.SceneConfig {
	out := make([]models.SceneConfig, len(scenes))
	copy(out, scenes)
	return out
}

func Scene(id models.ScenePreset) (models.SceneConfig, bool) {
	for _, s := range scenes {
		if s.ID == id {
			return s, true
		}
	}
	return models.SceneConfig{}, false
}

func Packages() []models.CreditPackage {
	out := make([]models.CreditPackage, len(packages))
	copy(out, packages)
	return out
}

// Package looks a package up by id or label, case-insensitively.
func Package(id string) (models.CreditPackage, bool) {
	id = strings.TrimSpace(id)
	for _, p := range packages {
		if strings.EqualFold(p.ID, id) || strings.EqualFold(p.Label, id) {
			return p, true
		}
	}
	return models.CreditPackage{}, false
}
