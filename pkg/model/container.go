package model

// ContainerHandle identifies the managed container instance. A handle is only
// valid for the run that created it.
type ContainerHandle struct {
	Name    string `json:"name"`
	ID      string `json:"id,omitempty"`
	Running bool   `json:"running"`
}
