package types

// ImageType discriminates a freshly built Image from one produced by fork.
type ImageType string

const (
	ImageMeta    ImageType = "meta"
	ImageDerived ImageType = "derived"
)

// Image is the persistence unit of a conversation: an append-only message
// history plus the Driver's opaque resume cursor. A meta image is built
// directly from a Definition with no messages; a derived image is the
// value-copy produced by Session.fork, recording its parent.
type Image struct {
	ImageID        string         `json:"imageId"`
	Type           ImageType      `json:"type"`
	DefinitionName string         `json:"definitionName"`
	ParentImageID  *string        `json:"parentImageId,omitempty"`
	Definition     Definition     `json:"definition"`
	Config         map[string]any `json:"config,omitempty"`
	Messages       []Message      `json:"messages"`
	DriverState    map[string]any `json:"driverState,omitempty"`
	CreatedAt      int64          `json:"createdAt"`
}

// NewMetaImage builds an empty image fresh from a Definition.
func NewMetaImage(def Definition, config map[string]any, createdAt int64) *Image {
	return &Image{
		ImageID:        NewID(PrefixImage),
		Type:           ImageMeta,
		DefinitionName: def.Name,
		Definition:     def.Clone(),
		Config:         config,
		Messages:       []Message{},
		DriverState:    map[string]any{},
		CreatedAt:      createdAt,
	}
}

// Fork returns a new derived Image that deep-copies this image's message
// history by value, recording parentage. Further mutation of either image's
// Messages slice never affects the other (spec.md P9).
func (img *Image) Fork(createdAt int64) *Image {
	parent := img.ImageID
	messages := make([]Message, len(img.Messages))
	copy(messages, img.Messages)

	config := make(map[string]any, len(img.Config))
	for k, v := range img.Config {
		config[k] = v
	}
	driverState := make(map[string]any, len(img.DriverState))
	for k, v := range img.DriverState {
		driverState[k] = v
	}

	return &Image{
		ImageID:        NewID(PrefixImage),
		Type:           ImageDerived,
		DefinitionName: img.DefinitionName,
		ParentImageID:  &parent,
		Definition:     img.Definition.Clone(),
		Config:         config,
		Messages:       messages,
		DriverState:    driverState,
		CreatedAt:      createdAt,
	}
}

// AppendMessage appends a message to the image's durable history.
func (img *Image) AppendMessage(m Message) {
	img.Messages = append(img.Messages, m)
}
