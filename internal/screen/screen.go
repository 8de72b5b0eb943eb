package screen

// A Screen is any drawable surface that accepts a 2D pixel offset. The
// offset positions the sprite sheet relative to the surface origin, so
// (-x, -y) is the sheet pixel that lands at the top-left corner.
type Screen interface {
	// ID distinguishes surfaces for registry attachment.
	ID() string
	// ApplyOffset positions the sheet on the surface.
	ApplyOffset(x, y int) error
	// Close releases the underlying output.
	Close() error
}
