package types

// Container is a namespace for running Agents, persisted so that Sessions
// referencing its Images survive process restarts even though the live
// Agents themselves do not.
type Container struct {
	ContainerID string         `json:"containerId"`
	CreatedAt   int64          `json:"createdAt"`
	Config      map[string]any `json:"config,omitempty"`
}

// NewContainer allocates a Container record.
func NewContainer(config map[string]any, now int64) *Container {
	return &Container{
		ContainerID: NewID(PrefixContainer),
		CreatedAt:   now,
		Config:      config,
	}
}
