package state

import "github.com/digkill/bizimage/internal/models"

// History is the newest-first list of generated images. Insertion order is
// the display order; records are never re-sorted by timestamp.
type History struct {
	images []models.GeneratedImage
}

func NewHistory(images []models.GeneratedImage) *History {
	h := &History{}
	if len(images) > 0 {
		h.images = append(make([]models.GeneratedImage, 0, len(images)), images...)
	}
	return h
}

// All returns a copy of every record, newest first.
func (h *History) All() []models.GeneratedImage {
	out := make([]models.GeneratedImage, len(h.images))
	copy(out, h.images)
	return out
}

func (h *History) Len() int {
	return len(h.images)
}

// Add prepends records, keeping their relative order.
func (h *History) Add(records ...models.GeneratedImage) {
	if len(records) == 0 {
		return
	}
	next := make([]models.GeneratedImage, 0, len(records)+len(h.images))
	next = append(next, records...)
	h.images = append(next, h.images...)
}

// Remove drops the record with id and reports whether one was found.
func (h *History) Remove(id string) bool {
	for i, img := range h.images {
		if img.ID == id {
			h.images = append(h.images[:i:i], h.images[i+1:]...)
			return true
		}
	}
	return false
}

// Newest returns the first record, if any.
func (h *History) Newest() (models.GeneratedImage, bool) {
	if len(h.images) == 0 {
		return models.GeneratedImage{}, false
	}
	return h.images[0], true
}

// ByKind projects the records of one kind, newest first.
func ByKind(images []models.GeneratedImage, kind models.ImageKind) []models.GeneratedImage {
	out := make([]models.GeneratedImage, 0, len(images))
	for _, img := range images {
		if img.Kind == kind {
			out = append(out, img)
		}
	}
	return out
}

// Recent returns at most n records of kind, newest first.
func Recent(images []models.GeneratedImage, kind models.ImageKind, n int) []models.GeneratedImage {
	filtered := ByKind(images, kind)
	if n >= 0 && len(filtered) > n {
		filtered = filtered[:n]
	}
	return filtered
}
