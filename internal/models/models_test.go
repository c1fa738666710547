package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageKind_JSON(t *testing.T) {
	img := GeneratedImage{
		ID:        "a",
		URL:       "data:image/png;base64,AAAA",
		Prompt:    "red shoe on grass",
		Kind:      KindProductToScene,
		CreatedAt: time.UnixMilli(1700000000000).UTC(),
	}

	data, err := json.Marshal(img)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"product-to-scene"`)

	var decoded GeneratedImage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, KindProductToScene, decoded.Kind)
	assert.True(t, img.CreatedAt.Equal(decoded.CreatedAt))
}

func TestImageKind_RejectsUnknown(t *testing.T) {
	var img GeneratedImage
	err := json.Unmarshal([]byte(`{"id":"a","type":"video"}`), &img)
	require.Error(t, err)

	_, err = json.Marshal(GeneratedImage{})
	assert.Error(t, err, "zero kind must not serialize")
	assert.False(t, ImageKind{}.IsValid())
}

func TestParseScenePreset(t *testing.T) {
	p, err := ParseScenePreset("dark")
	require.NoError(t, err)
	assert.Equal(t, SceneDark, p)

	_, err = ParseScenePreset("beach")
	assert.Error(t, err)
}

func TestParseTab(t *testing.T) {
	tab, err := ParseTab("credits")
	require.NoError(t, err)
	assert.Equal(t, TabCredits, tab)

	_, err = ParseTab("settings")
	assert.Error(t, err)
}

func TestCreditPackage_Price(t *testing.T) {
	assert.Equal(t, "29.99", CreditPackage{PriceMinorUnits: 2999}.Price())
	assert.Equal(t, "9.99", CreditPackage{PriceMinorUnits: 999}.Price())
	assert.Equal(t, "100.00", CreditPackage{PriceMinorUnits: 10000}.Price())
}

func TestDefaultAccount(t *testing.T) {
	acc := DefaultAccount()
	assert.Equal(t, "u1", acc.ID)
	assert.Equal(t, "user@example.com", acc.Email)
	assert.Equal(t, 10, acc.Credits)
}
