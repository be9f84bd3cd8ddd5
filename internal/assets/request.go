// Package assets loads showroom models and textures off the render thread
// and reports progress and terminal outcomes on the event bus.
package assets

import (
	"errors"

	"github.com/google/uuid"
)

// Request describes one showroom piece to load.
type Request struct {
	ID                 string
	ModelPath          string
	DiffuseTexturePath string // optional
	AlphaTexturePath   string // optional; makes the material transparent
	Interactive        bool
	Emissive           bool // self-illuminating, textures are not fetched
}

// Validate checks that the request can be loaded at all.
func (r Request) Validate() error {
	switch {
	case r.ID == "":
		return configError(r.ID, errors.New("request has no id"))
	case r.ModelPath == "":
		return configError(r.ID, errors.New("request has no model path"))
	}
	return nil
}

// HasTextures reports whether the texture stage fetches anything.
func (r Request) HasTextures() bool {
	return !r.Emissive && (r.DiffuseTexturePath != "" || r.AlphaTexturePath != "")
}

// Paths returns every asset path the request reads.
func (r Request) Paths() []string {
	paths := []string{r.ModelPath}
	if r.HasTextures() {
		for _, p := range []string{r.DiffuseTexturePath, r.AlphaTexturePath} {
			if p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths
}

// Ticket identifies one submission. Resubmitting the same request yields a
// new ticket.
type Ticket = uuid.UUID

// Outcome is the terminal result of a submission. Err is nil when the
// piece was attached; otherwise it is a *LoadError.
type Outcome struct {
	ID     string
	Ticket Ticket
	Err    error
}

// Loaded reports whether the submission succeeded.
func (o Outcome) Loaded() bool {
	return o.Err == nil
}
