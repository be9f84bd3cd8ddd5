package events

// Event names published by the viewer.
const (
	PointerDown      = "pointer-down"
	PointerMoveStart = "pointer-move-start"
	PointerMove      = "pointer-move"
	PointerUp        = "pointer-up"

	Intersect     = "intersect"
	LostIntersect = "lost-intersect"
	ObjectClicked = "object-clicked"

	ModelLoading  = "model_loading"
	ModelLoaded   = "model_loaded"
	ModelFailed   = "model_failed"
	ModelsSettled = "models_settled"
)
