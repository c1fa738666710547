package state

import (
	"github.com/digkill/bizimage/internal/catalog"
	"github.com/digkill/bizimage/internal/models"
)

// Forms holds the transient dashboard inputs.
type Forms struct {
	TextPrompt    string             `json:"textPrompt"`
	ProductImage  string             `json:"-"`
	Scene         models.ScenePreset `json:"scene"`
	ProductPrompt string             `json:"productPrompt"`
}

// NewForms returns empty inputs with the default scene preselected.
func NewForms() Forms {
	return Forms{Scene: catalog.DefaultScene}
}

// App is the explicitly owned application state: account, history and the
// UI state of the dashboard. It is not safe for concurrent use; the owner
// serializes access.
type App struct {
	Ledger    *Ledger
	History   *History
	Tab       models.Tab
	Forms     Forms
	TextFlow  models.FlowStatus
	SceneFlow models.FlowStatus
}

func NewApp(account models.Account, images []models.GeneratedImage) *App {
	return &App{
		Ledger:    NewLedger(account),
		History:   NewHistory(images),
		Tab:       models.TabText,
		Forms:     NewForms(),
		TextFlow:  models.FlowStatus{State: models.FlowIdle},
		SceneFlow: models.FlowStatus{State: models.FlowIdle},
	}
}

// Flow returns the status slot of the control that produces kind.
func (a *App) Flow(kind models.ImageKind) *models.FlowStatus {
	if kind == models.KindProductToScene {
		return &a.SceneFlow
	}
	return &a.TextFlow
}
