package types

// Session is the user-facing handle binding a user to an Image. Multiple
// Sessions may reference the same Image for shared history; a Session
// outlives any Agent instantiated against it.
type Session struct {
	SessionID   string  `json:"sessionId"`
	ContainerID string  `json:"containerId"`
	ImageID     string  `json:"imageId"`
	ParentID    *string `json:"parentId,omitempty"`
	Title       string  `json:"title,omitempty"`
	CreatedAt   int64   `json:"createdAt"`
	UpdatedAt   int64   `json:"updatedAt"`
}

// NewSession allocates a Session bound to the given container and image.
func NewSession(containerID, imageID string, now int64) *Session {
	return &Session{
		SessionID:   NewID(PrefixSession),
		ContainerID: containerID,
		ImageID:     imageID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
