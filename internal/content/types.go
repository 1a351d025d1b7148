package content

import (
	"errors"
	"regexp"
	"time"
)

// slotKeyPattern defines the valid format for slot keys:
// lowercase alphanumeric with hyphens, 1-64 characters.
var slotKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// IsValidSlotKey checks if a slot key meets format requirements.
func IsValidSlotKey(key string) bool {
	return slotKeyPattern.MatchString(key)
}

// Kind distinguishes what a slot holds.
type Kind string

const (
	// KindImage is a slot holding an uploaded image URL.
	KindImage Kind = "image"

	// KindVideo is a slot holding an external video embed ID.
	KindVideo Kind = "video"
)

// IsValidKind returns true for a known slot kind.
func IsValidKind(k Kind) bool {
	return k == KindImage || k == KindVideo
}

// Slot represents a named media placement on the public site.
type Slot struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	URL       string    `json:"url,omitempty"`      // image slots
	EmbedID   string    `json:"embed_id,omitempty"` // video slots
	OwnerID   string    `json:"owner_id"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the slot's structural requirements. Kind-specific: an
// image slot needs a URL, a video slot needs an embed ID.
func (s *Slot) Validate() error {
	if !IsValidSlotKey(s.Key) {
		return ErrInvalidKey
	}
	if !IsValidKind(s.Kind) {
		return ErrInvalidKind
	}
	if s.Title == "" {
		return ErrMissingTitle
	}
	switch s.Kind {
	case KindImage:
		if s.URL == "" {
			return ErrMissingURL
		}
	case KindVideo:
		if s.EmbedID == "" {
			return ErrMissingEmbedID
		}
	}
	return nil
}

// Sentinel errors for slot operations.
var (
	ErrSlotNotFound   = errors.New("slot not found")
	ErrKeyExists      = errors.New("slot key already exists")
	ErrInvalidKey     = errors.New("invalid slot key")
	ErrInvalidKind    = errors.New("invalid slot kind")
	ErrMissingTitle   = errors.New("slot title is required")
	ErrMissingURL     = errors.New("image slot requires a url")
	ErrMissingEmbedID = errors.New("video slot requires an embed id")
)
