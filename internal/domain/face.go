package domain

import (
	"errors"
	"fmt"
)

// Metadata keys attached to every face object in the faces bucket
const (
	MetaOriginalPhoto  = "Original-Photo"
	MetaTgFileUniqueID = "Tg-File-Unique-Id"
	MetaName           = "Name"
)

var (
	// ErrInvalidBox indicates a bounding box with non-positive size or negative origin
	ErrInvalidBox = errors.New("invalid bounding box")

	// ErrInvalidTask indicates a face task that cannot be processed as sent
	ErrInvalidTask = errors.New("invalid face task")
)

// BoundingBox representa a região de uma face em pixels da imagem original
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate checks the box shape independent of any image
func (b BoundingBox) Validate() error {
	if b.X < 0 || b.Y < 0 {
		return fmt.Errorf("%w: negative origin (%d,%d)", ErrInvalidBox, b.X, b.Y)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: non-positive size %dx%d", ErrInvalidBox, b.Width, b.Height)
	}
	return nil
}

// Fits reports whether the box lies fully inside an image of the given size
func (b BoundingBox) Fits(width, height int) bool {
	return b.Validate() == nil && b.X+b.Width <= width && b.Y+b.Height <= height
}

// Clamp trims the box to an image of the given size.
// The second return value is false when nothing of the box remains.
func (b BoundingBox) Clamp(width, height int) (BoundingBox, bool) {
	x0, y0 := max(b.X, 0), max(b.Y, 0)
	x1, y1 := min(b.X+b.Width, width), min(b.Y+b.Height, height)
	if x1 <= x0 || y1 <= y0 {
		return BoundingBox{}, false
	}
	return BoundingBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", b.X, b.Y, b.Width, b.Height)
}

// FaceTask is the queued instruction to crop one detected face out of one photo.
// Detector and cropper both use this JSON shape.
type FaceTask struct {
	SourceKey string      `json:"source_key"`
	Box       BoundingBox `json:"box"`
}

// Validate checks that the task can be attempted at all
func (t FaceTask) Validate() error {
	if t.SourceKey == "" {
		return fmt.Errorf("%w: empty source_key", ErrInvalidTask)
	}
	if err := t.Box.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTask, err)
	}
	return nil
}

// LabelState is the position of a face object in the labeling protocol
type LabelState int

const (
	// StateUnsent: face never shown to a human
	StateUnsent LabelState = iota
	// StateAwaitingName: face delivered, reply not yet received
	StateAwaitingName
	// StateNamed: a name has been recorded
	StateNamed
)

func (s LabelState) String() string {
	switch s {
	case StateUnsent:
		return "unsent"
	case StateAwaitingName:
		return "awaiting_name"
	case StateNamed:
		return "named"
	default:
		return "unknown"
	}
}

// FaceObject is a stored face crop plus its provenance and labeling metadata
type FaceObject struct {
	Key      string            `json:"key"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// OriginalPhoto returns the key of the source photo
func (f FaceObject) OriginalPhoto() string {
	return f.Metadata[MetaOriginalPhoto]
}

// UniqueID returns the transport unique id recorded when the face was first sent
func (f FaceObject) UniqueID() string {
	return f.Metadata[MetaTgFileUniqueID]
}

// Name returns the human supplied label, empty when unnamed
func (f FaceObject) Name() string {
	return f.Metadata[MetaName]
}

// State derives the labeling state from metadata
func (f FaceObject) State() LabelState {
	switch {
	case f.Name() != "":
		return StateNamed
	case f.UniqueID() != "":
		return StateAwaitingName
	default:
		return StateUnsent
	}
}
