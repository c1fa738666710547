package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Account is the single user record of a dashboard instance.
type Account struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Credits int    `json:"credits"`
}

// DefaultAccount is the seed used when nothing usable is persisted.
func DefaultAccount() Account {
	return Account{ID: "u1", Email: "user@example.com", Credits: 10}
}

type ScenePreset string

const (
	SceneStudio  ScenePreset = "studio"
	SceneDesk    ScenePreset = "desk"
	SceneOutdoor ScenePreset = "outdoor"
	SceneSoft    ScenePreset = "soft"
	SceneDark    ScenePreset = "dark"
)

// ParseScenePreset accepts only the five known presets.
func ParseScenePreset(raw string) (ScenePreset, error) {
	switch p := ScenePreset(raw); p {
	case SceneStudio, SceneDesk, SceneOutdoor, SceneSoft, SceneDark:
		return p, nil
	default:
		return "", fmt.Errorf("unknown scene preset: %q", raw)
	}
}

type SceneConfig struct {
	ID             ScenePreset `json:"id"`
	Label          string      `json:"label"`
	Description    string      `json:"description"`
	PromptModifier string      `json:"promptModifier"`
	Icon           string      `json:"icon"`
}

// ImageKind is a closed two-case variant. The zero value is not a valid kind
// and only KindTextToImage and KindProductToScene can be obtained.
type ImageKind struct {
	name string
}

var (
	KindTextToImage    = ImageKind{name: "text-to-image"}
	KindProductToScene = ImageKind{name: "product-to-scene"}
)

func ParseImageKind(raw string) (ImageKind, error) {
	switch raw {
	case KindTextToImage.name:
		return KindTextToImage, nil
	case KindProductToScene.name:
		return KindProductToScene, nil
	default:
		return ImageKind{}, fmt.Errorf("unknown image kind: %q", raw)
	}
}

func (k ImageKind) String() string {
	return k.name
}

func (k ImageKind) IsValid() bool {
	return k == KindTextToImage || k == KindProductToScene
}

func (k ImageKind) MarshalJSON() ([]byte, error) {
	if !k.IsValid() {
		return nil, fmt.Errorf("marshal invalid image kind")
	}
	return json.Marshal(k.name)
}

func (k *ImageKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode image kind: %w", err)
	}
	parsed, err := ParseImageKind(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

type GeneratedImage struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	Kind      ImageKind `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreditPackage struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	Credits         int    `json:"credits"`
	PriceMinorUnits int    `json:"priceMinorUnits"`
	Currency        string `json:"currency"`
	Popular         bool   `json:"popular,omitempty"`
}

// Price renders the package price as a decimal string, e.g. "29.99".
func (p CreditPackage) Price() string {
	return fmt.Sprintf("%d.%02d", p.PriceMinorUnits/100, p.PriceMinorUnits%100)
}

type Tab string

const (
	TabText    Tab = "text"
	TabProduct Tab = "product"
	TabGallery Tab = "gallery"
	TabCredits Tab = "credits"
)

func ParseTab(raw string) (Tab, error) {
	switch t := Tab(raw); t {
	case TabText, TabProduct, TabGallery, TabCredits:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tab: %q", raw)
	}
}

// FlowState tracks one generation control: idle -> in-flight -> idle-with-records | idle-with-error.
type FlowState string

const (
	FlowIdle            FlowState = "idle"
	FlowInFlight        FlowState = "in-flight"
	FlowIdleWithRecords FlowState = "idle-with-records"
	FlowIdleWithError   FlowState = "idle-with-error"
)

type FlowStatus struct {
	State      FlowState `json:"state"`
	NewRecords int       `json:"newRecords,omitempty"`
	Error      string    `json:"error,omitempty"`
}
