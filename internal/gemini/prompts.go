package gemini

import (
	"fmt"
	"strings"

	"github.com/digkill/bizimage/internal/catalog"
)

// Prompter composes the final prompts sent to the model. Every prompt ends
// with a branding clause asking the model to render the contact text.
type Prompter struct {
	Branding catalog.Branding
}

func (p Prompter) Text(prompt string) string {
	branding := fmt.Sprintf(
		"Ensure the image clearly displays the text %q and \"WA: %s\" in a professional, unobtrusive way suitable for an advertisement.",
		p.Branding.Website, p.Branding.WhatsApp,
	)
	return fmt.Sprintf("%s. %s", strings.TrimSpace(prompt), branding)
}

func (p Prompter) Scene(sceneModifier, userText string) string {
	branding := fmt.Sprintf(
		"The image MUST include visible text overlay: %q and \"WA: %s\". Place this text elegantly as if it is a commercial advertisement poster.",
		p.Branding.Website, p.Branding.WhatsApp,
	)

	var b strings.Builder
	b.WriteString("Generate a high-quality commercial product image based on the input image.\n")
	fmt.Fprintf(&b, "Scene Setting: %s.\n", sceneModifier)
	if details := strings.TrimSpace(userText); details != "" {
		fmt.Fprintf(&b, "Additional Details: %s.\n", details)
	}
	b.WriteString("Requirements: Keep the product in the input image as the focal point. Apply photorealistic lighting and shadows. Commercial photography style.\n")
	b.WriteString(branding)
	return b.String()
}
