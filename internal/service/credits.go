package service

import (
	"context"
	"fmt"

	"github.com/digkill/bizimage/internal/apperr"
	"github.com/digkill/bizimage/internal/catalog"
	"github.com/digkill/bizimage/internal/metrics"
	"github.com/digkill/bizimage/internal/models"
	"github.com/digkill/bizimage/internal/state"
)

const (
	PurchaseSuccessNotice = "Credits added successfully!"
	DeleteConfirmPrompt   = "Are you sure you want to delete this image? This action cannot be undone."
)

// Confirmer asks the user to approve an irreversible action.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, message string) bool {
	return f(ctx, message)
}

// Preconfirmed is a Confirmer with a fixed answer, for callers that collected
// the approval before the call.
type Preconfirmed bool

func (p Preconfirmed) Confirm(context.Context, string) bool {
	return bool(p)
}

// PurchasePrompt is the confirmation text shown for a package.
func PurchasePrompt(pkg models.CreditPackage) string {
	return fmt.Sprintf("Confirm purchase of %d credits?", pkg.Credits)
}

type PurchaseResult struct {
	Confirmed bool                 `json:"confirmed"`
	Package   models.CreditPackage `json:"package"`
	Balance   int                  `json:"balance"`
	Notice    string               `json:"notice,omitempty"`
}

// Purchase credits the account with a package once the user confirms. No
// payment is taken or recorded.
func (d *Dashboard) Purchase(ctx context.Context, packageID string, confirmer Confirmer) (PurchaseResult, error) {
	pkg, ok := catalog.Package(packageID)
	if !ok {
		return PurchaseResult{}, apperr.NewValidation(fmt.Sprintf("Unknown credit package %q.", packageID))
	}

	if !confirmer.Confirm(ctx, PurchasePrompt(pkg)) {
		return PurchaseResult{Package: pkg, Balance: d.Balance()}, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.app.Ledger.Credit(pkg.Credits)
	d.persistAccountLocked(ctx)
	metrics.RecordPurchase(pkg.ID, pkg.Credits)
	d.log.InfoContext(ctx, "credits purchased", "package", pkg.ID, "credits", pkg.Credits, "balance", d.app.Ledger.Balance())

	return PurchaseResult{
		Confirmed: true,
		Package:   pkg,
		Balance:   d.app.Ledger.Balance(),
		Notice:    PurchaseSuccessNotice,
	}, nil
}

type DeleteResult struct {
	Confirmed bool `json:"confirmed"`
	Removed   bool `json:"removed"`
}

// DeleteImage removes one record after confirmation. An unknown id is a no-op.
func (d *Dashboard) DeleteImage(ctx context.Context, id string, confirmer Confirmer) DeleteResult {
	if !confirmer.Confirm(ctx, DeleteConfirmPrompt) {
		return DeleteResult{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.app.History.Remove(id) {
		return DeleteResult{Confirmed: true}
	}
	d.persistHistoryLocked(ctx)
	metrics.RecordDeletion()
	d.log.InfoContext(ctx, "image deleted", "id", id, "remaining", d.app.History.Len())
	return DeleteResult{Confirmed: true, Removed: true}
}

// Logout resets the transient dashboard state. Account and history stay.
func (d *Dashboard) Logout() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.app.Tab = models.TabText
	d.app.Forms = state.NewForms()
	d.app.TextFlow = models.FlowStatus{State: models.FlowIdle}
	d.app.SceneFlow = models.FlowStatus{State: models.FlowIdle}
}
