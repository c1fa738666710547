package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/bizimage/internal/models"
)

func img(id string, kind models.ImageKind) models.GeneratedImage {
	return models.GeneratedImage{ID: id, URL: "u-" + id, Prompt: "p", Kind: kind, CreatedAt: time.Unix(0, 0)}
}

func TestLedger(t *testing.T) {
	l := NewLedger(models.DefaultAccount())
	assert.Equal(t, 10, l.Balance())

	l.Debit(1)
	assert.Equal(t, 9, l.Balance())

	l.Credit(100)
	assert.Equal(t, 109, l.Balance())

	l.Debit(200)
	assert.Equal(t, -91, l.Balance(), "ledger does not guard against overdraft")
	assert.Equal(t, "u1", l.Account().ID)
}

func TestHistory_AddPrependsInOrder(t *testing.T) {
	h := NewHistory([]models.GeneratedImage{img("old", models.KindTextToImage)})
	h.Add(img("a", models.KindTextToImage), img("b", models.KindTextToImage))

	ids := []string{}
	for _, r := range h.All() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "b", "old"}, ids)

	newest, ok := h.Newest()
	require.True(t, ok)
	assert.Equal(t, "a", newest.ID)
}

func TestHistory_Remove(t *testing.T) {
	h := NewHistory(nil)
	h.Add(img("a", models.KindTextToImage), img("b", models.KindProductToScene), img("c", models.KindTextToImage))

	assert.False(t, h.Remove("missing"))
	assert.Equal(t, 3, h.Len())

	assert.True(t, h.Remove("b"))
	all := h.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[1].ID)

	assert.False(t, h.Remove("b"))
	assert.Equal(t, 2, h.Len())
}

func TestHistory_AllIsCopy(t *testing.T) {
	h := NewHistory(nil)
	h.Add(img("a", models.KindTextToImage))
	all := h.All()
	all[0].ID = "mutated"

	newest, _ := h.Newest()
	assert.Equal(t, "a", newest.ID)
}

func TestByKindAndRecent(t *testing.T) {
	var images []models.GeneratedImage
	for i := 0; i < 6; i++ {
		images = append(images, img(fmt.Sprintf("t%d", i), models.KindTextToImage))
	}
	images = append(images, img("s0", models.KindProductToScene))

	assert.Len(t, ByKind(images, models.KindTextToImage), 6)
	assert.Len(t, ByKind(images, models.KindProductToScene), 1)

	recent := Recent(images, models.KindTextToImage, 4)
	require.Len(t, recent, 4)
	assert.Equal(t, "t0", recent[0].ID)
	assert.Equal(t, "t3", recent[3].ID)
}

func TestNewApp_Defaults(t *testing.T) {
	app := NewApp(models.DefaultAccount(), nil)
	assert.Equal(t, models.TabText, app.Tab)
	assert.Equal(t, models.SceneStudio, app.Forms.Scene)
	assert.Equal(t, models.FlowIdle, app.TextFlow.State)
	assert.Equal(t, models.FlowIdle, app.SceneFlow.State)
	assert.Same(t, &app.SceneFlow, app.Flow(models.KindProductToScene))
	assert.Same(t, &app.TextFlow, app.Flow(models.KindTextToImage))
}
