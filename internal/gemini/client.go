package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/digkill/bizimage/internal/apperr"
	"github.com/digkill/bizimage/internal/catalog"
	"github.com/digkill/bizimage/internal/config"
	"github.com/digkill/bizimage/internal/datauri"
)

const (
	textFailureMessage  = "Failed to generate images. Please try again."
	sceneFailureMessage = "Failed to transform product image. Ensure the image is clear."
	defaultOutputMIME   = "image/png"
)

var errMissingAPIKey = errors.New("gemini api key is not configured")

// ContentGenerator is the slice of the genai Models API the client needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Options struct {
	Model             string
	AspectRatio       string
	TextImageCount    int
	RequestsPerMinute int
	Branding          catalog.Branding
}

// Image is one generated picture as returned inline by the model.
type Image struct {
	MIMEType string
	Data     []byte
}

func (i Image) DataURI() string {
	return datauri.Encode(i.MIMEType, i.Data)
}

type Client struct {
	models   ContentGenerator
	opts     Options
	prompter Prompter
	limiter  *rate.Limiter
	log      *slog.Logger
}

// NewClient builds a client backed by the Gemini API. A missing key is
// logged rather than returned so the service can still start; every call
// then fails as a remote failure.
func NewClient(ctx context.Context, cfg config.Config, log *slog.Logger) (*Client, error) {
	opts := Options{
		Model:             cfg.GeminiModel,
		AspectRatio:       cfg.AspectRatio,
		TextImageCount:    cfg.TextImageCount,
		RequestsPerMinute: cfg.RequestsPerMin,
		Branding:          catalog.Branding{Website: cfg.BrandWebsite, WhatsApp: cfg.BrandWhatsApp},
	}

	if cfg.GeminiAPIKey == "" {
		log.Error("GEMINI_API_KEY is missing from environment variables")
		return NewWithGenerator(unavailable{}, opts, log), nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return NewWithGenerator(client.Models, opts, log), nil
}

func NewWithGenerator(models ContentGenerator, opts Options, log *slog.Logger) *Client {
	if opts.TextImageCount <= 0 {
		opts.TextImageCount = 2
	}
	if opts.AspectRatio == "" {
		opts.AspectRatio = "1:1"
	}
	if opts.Branding == (catalog.Branding{}) {
		opts.Branding = catalog.DefaultBranding()
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		models:   models,
		opts:     opts,
		prompter: Prompter{Branding: opts.Branding},
		log:      log,
	}
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), opts.TextImageCount)
	}
	return c
}

// GenerateFromText issues TextImageCount independent requests in parallel.
// Requests whose response carries no image are dropped, so fewer images than
// requested is still a success. Any request error fails the whole call.
func (c *Client) GenerateFromText(ctx context.Context, prompt string) ([]Image, error) {
	finalPrompt := c.prompter.Text(prompt)

	results := make([]*Image, c.opts.TextImageCount)
	eg, egCtx := errgroup.WithContext(ctx)
	for i := range results {
		eg.Go(func() error {
			img, err := c.generate(egCtx, genai.NewPartFromText(finalPrompt))
			if err != nil {
				return err
			}
			results[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		c.log.ErrorContext(ctx, "text-to-image error", "model", c.opts.Model, "err", err)
		return nil, apperr.NewRemoteFailure(textFailureMessage, err)
	}

	images := make([]Image, 0, len(results))
	for _, img := range results {
		if img != nil {
			images = append(images, *img)
		}
	}
	if len(images) < len(results) {
		c.log.WarnContext(ctx, "some text-to-image requests returned no image", "requested", len(results), "received", len(images))
	}
	return images, nil
}

// GenerateFromImageAndText sends the product image followed by the scene
// prompt in a single request and returns zero or one image.
func (c *Client) GenerateFromImageAndText(ctx context.Context, imageDataURI, sceneModifier, userText string) ([]Image, error) {
	input, err := datauri.Decode(imageDataURI)
	if err != nil {
		c.log.WarnContext(ctx, "product image rejected", "err", err)
		return nil, apperr.NewValidation("The product image could not be read. Please upload it again.")
	}

	img, err := c.generate(ctx,
		genai.NewPartFromBytes(input.Data, input.MIMEType),
		genai.NewPartFromText(c.prompter.Scene(sceneModifier, userText)),
	)
	if err != nil {
		c.log.ErrorContext(ctx, "product-to-scene error", "model", c.opts.Model, "err", err)
		return nil, apperr.NewRemoteFailure(sceneFailureMessage, err)
	}
	if img == nil {
		return []Image{}, nil
	}
	return []Image{*img}, nil
}

func (c *Client) generate(ctx context.Context, parts ...*genai.Part) (*Image, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.models.GenerateContent(ctx, c.opts.Model,
		[]*genai.Content{{Role: string(genai.RoleUser), Parts: parts}},
		&genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{AspectRatio: c.opts.AspectRatio},
		},
	)
	if err != nil {
		return nil, err
	}
	return firstInlineImage(resp), nil
}

// firstInlineImage scans the first candidate for an inline image part.
func firstInlineImage(resp *genai.GenerateContentResponse) *Image {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return nil
	}
	for _, part := range candidate.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = defaultOutputMIME
		}
		return &Image{MIMEType: mimeType, Data: part.InlineData.Data}
	}
	return nil
}

type unavailable struct{}

func (unavailable) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, errMissingAPIKey
}

