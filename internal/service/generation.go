package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/digkill/bizimage/internal/apperr"
	"github.com/digkill/bizimage/internal/catalog"
	"github.com/digkill/bizimage/internal/gemini"
	"github.com/digkill/bizimage/internal/metrics"
	"github.com/digkill/bizimage/internal/models"
)

// GenerationCost is charged once per successful generation, however many
// images it produced.
const GenerationCost = 1

const (
	textFailureNotice  = "Generation failed. Please try again."
	sceneFailureNotice = "Generation failed. Please try a clearer product image."
	missingPromptText  = "Please enter a prompt."
	missingImageText   = "Please upload a product image first."
)

type GenerationStatus string

const (
	GenerationCompleted GenerationStatus = "completed"
	// GenerationRedirected means the balance was too low; the purchase tab is
	// now active and nothing was sent to the gateway.
	GenerationRedirected GenerationStatus = "redirected"
)

type GenerationResult struct {
	Status  GenerationStatus        `json:"status"`
	Records []models.GeneratedImage `json:"records,omitempty"`
	Balance int                     `json:"balance"`
}

type generationRequest struct {
	kind          models.ImageKind
	op            string
	recordPrompt  string
	failureNotice string
	call          func(ctx context.Context) ([]gemini.Image, error)
	// applied under the lock after records are added
	onSuccess func()
}

// GenerateText runs the text-to-image flow. A non-empty prompt replaces the
// form value first; otherwise the current form value is used.
func (d *Dashboard) GenerateText(ctx context.Context, prompt string) (GenerationResult, error) {
	d.mu.Lock()
	if prompt != "" {
		d.app.Forms.TextPrompt = prompt
	}
	prompt = d.app.Forms.TextPrompt
	d.mu.Unlock()

	return d.generate(ctx, generationRequest{
		kind:          models.KindTextToImage,
		op:            "generate_text",
		recordPrompt:  prompt,
		failureNotice: textFailureNotice,
		call: func(ctx context.Context) ([]gemini.Image, error) {
			return d.gateway.GenerateFromText(ctx, prompt)
		},
		onSuccess: func() { d.app.Forms.TextPrompt = "" },
	}, func() error {
		if strings.TrimSpace(prompt) == "" {
			return apperr.NewValidation(missingPromptText)
		}
		return nil
	})
}

// GenerateScene runs the product-to-scene flow with the current product
// image, scene and optional details. The form is left untouched afterwards
// so the same product can be placed in several scenes.
func (d *Dashboard) GenerateScene(ctx context.Context) (GenerationResult, error) {
	d.mu.Lock()
	forms := d.app.Forms
	d.mu.Unlock()

	scene, ok := catalog.Scene(forms.Scene)
	if !ok {
		scene, _ = catalog.Scene(catalog.DefaultScene)
	}

	return d.generate(ctx, generationRequest{
		kind:          models.KindProductToScene,
		op:            "generate_scene",
		recordPrompt:  fmt.Sprintf("Product in %s: %s", scene.Label, forms.ProductPrompt),
		failureNotice: sceneFailureNotice,
		call: func(ctx context.Context) ([]gemini.Image, error) {
			return d.gateway.GenerateFromImageAndText(ctx, forms.ProductImage, scene.PromptModifier, forms.ProductPrompt)
		},
	}, func() error {
		if forms.ProductImage == "" {
			return apperr.NewValidation(missingImageText)
		}
		return nil
	})
}

func (d *Dashboard) generate(ctx context.Context, req generationRequest, validate func() error) (GenerationResult, error) {
	kind := req.kind.String()

	d.mu.Lock()
	if d.app.Ledger.Balance() < GenerationCost {
		d.app.Tab = models.TabCredits
		balance := d.app.Ledger.Balance()
		d.mu.Unlock()

		metrics.RecordGeneration(kind, metrics.OutcomeRedirected, 0)
		d.log.InfoContext(ctx, "insufficient credits, redirecting to purchase", "op", req.op, "balance", balance)
		return GenerationResult{Status: GenerationRedirected, Balance: balance}, nil
	}
	if err := validate(); err != nil {
		d.mu.Unlock()
		metrics.RecordGeneration(kind, metrics.OutcomeInvalid, 0)
		d.errs.Handle(ctx, req.op, err)
		return GenerationResult{}, err
	}
	flow := d.app.Flow(req.kind)
	flow.State = models.FlowInFlight
	flow.NewRecords = 0
	flow.Error = ""
	d.mu.Unlock()

	started := time.Now()
	images, err := req.call(ctx)
	if err == nil && len(images) == 0 {
		err = apperr.NewMalformedResponse(req.failureNotice)
	}
	if err != nil {
		metrics.RecordGeneration(kind, metrics.OutcomeFailed, time.Since(started))
		d.errs.Handle(ctx, req.op, err)
		d.fail(req, err)
		return GenerationResult{}, err
	}
	metrics.RecordGeneration(kind, metrics.OutcomeSuccess, time.Since(started))

	urls := d.imageURLs(ctx, req.kind, images)

	d.mu.Lock()
	defer d.mu.Unlock()

	records := d.buildRecordsLocked(req, urls)
	d.app.History.Add(records...)
	d.app.Ledger.Debit(GenerationCost)
	if req.onSuccess != nil {
		req.onSuccess()
	}
	flow = d.app.Flow(req.kind)
	flow.State = models.FlowIdleWithRecords
	flow.NewRecords = len(records)
	flow.Error = ""
	d.persistLocked(ctx)

	metrics.RecordImagesGenerated(kind, len(records))
	metrics.RecordDebit(GenerationCost)
	d.log.InfoContext(ctx, "generation completed", "op", req.op, "images", len(records), "balance", d.app.Ledger.Balance())

	return GenerationResult{
		Status:  GenerationCompleted,
		Records: records,
		Balance: d.app.Ledger.Balance(),
	}, nil
}

func (d *Dashboard) fail(req generationRequest, err error) {
	notice := req.failureNotice
	if apperr.KindOf(err) == apperr.KindValidation {
		notice = apperr.UserMessage(err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	flow := d.app.Flow(req.kind)
	flow.State = models.FlowIdleWithError
	flow.NewRecords = 0
	flow.Error = notice
}

// imageURLs resolves the stored URL of each payload: the public object URL
// when offloading succeeds, the inline data URI otherwise.
func (d *Dashboard) imageURLs(ctx context.Context, kind models.ImageKind, images []gemini.Image) []urlWithID {
	out := make([]urlWithID, len(images))
	for i, img := range images {
		id := d.newID()
		out[i] = urlWithID{id: id, url: img.DataURI()}
		if d.uploader == nil {
			continue
		}
		url, err := d.uploader.Upload(ctx, id, kind, img.Data, img.MIMEType)
		if err != nil {
			d.log.WarnContext(ctx, "image offload failed, keeping inline data", "id", id, "err", err)
			continue
		}
		out[i].url = url
	}
	return out
}

type urlWithID struct {
	id  string
	url string
}

// buildRecordsLocked stamps every record with the same creation time, never
// earlier than the newest record already in the history.
func (d *Dashboard) buildRecordsLocked(req generationRequest, urls []urlWithID) []models.GeneratedImage {
	createdAt := d.now()
	if newest, ok := d.app.History.Newest(); ok && createdAt.Before(newest.CreatedAt) {
		createdAt = newest.CreatedAt
	}

	records := make([]models.GeneratedImage, len(urls))
	for i := range urls {
		records[i] = models.GeneratedImage{
			ID:        urls[i].id,
			URL:       urls[i].url,
			Prompt:    req.recordPrompt,
			Kind:      req.kind,
			CreatedAt: createdAt,
		}
	}
	return records
}
