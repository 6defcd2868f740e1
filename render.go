package milsym

import "context"

// Style controls how a Renderer draws a symbol.
type Style struct {
	// Fill selects a color mode such as "light" or "unfilled".
	Fill string
	// Padding is the margin around the symbol bounding box.
	Padding float64
	// UseVariants draws alternate icons where an entity provides them.
	UseVariants bool
	// Background draws an outline behind the frame.
	Background bool
}

// Renderer draws a symbol. The library ships no implementation; the
// geometry it needs is available from the taxonomy values.
type Renderer interface {
	Render(ctx context.Context, sym *Symbol, style Style) ([]byte, error)
}
