// Package glsl holds the embedded GLSL sources of the renderer.
package glsl

import _ "embed"

// MeshVertex transforms scene meshes.
//
//go:embed mesh.vert
var MeshVertex string

// MeshFragment shades basic and emissive materials.
//
//go:embed mesh.frag
var MeshFragment string

// MaskFragment writes full coverage for the outline mask.
//
//go:embed mask.frag
var MaskFragment string

//go:embed fullscreen.vert
var FullscreenVertex string

// OutlineFragment composites the selection outline over the scene.
//
//go:embed outline.frag
var OutlineFragment string

//go:embed fxaa.frag
var FXAAFragment string

//go:embed overlay.vert
var OverlayVertex string

//go:embed overlay.frag
var OverlayFragment string
