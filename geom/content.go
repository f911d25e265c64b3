package geom

// Box describes the layout of a host element, the same quantities a browser reports for a DOM
// element: its border box relative to the viewport, its border insets, its own scroll offset and scrollable size.
type Box struct {
	// Bounds is the border box in viewport (client) coordinates.
	Bounds Rect
	// ClientLeft and ClientTop are the widths of the left and top border, including a scrollbar placed on that side.
	ClientLeft, ClientTop float64
	// ClientWidth is the visible width of the content area, excluding borders and scrollbars.
	ClientWidth, ClientHeight float64
	// ScrollLeft and ScrollTop are the element's own scroll offsets.
	ScrollLeft, ScrollTop float64
	// ScrollWidth and ScrollHeight are the size of the scrollable content.
	ScrollWidth, ScrollHeight float64
}

// RectOfContent returns the content box of b in document coordinates. windowScroll is the document's scroll offset.
// This is the reference frame used to convert pointer page coordinates into positions within an element.
func RectOfContent(b Box, windowScroll Point) Rect {
	x := b.Bounds.X + windowScroll.X
	y := b.Bounds.Y + windowScroll.Y
	return Rect{
		X:      x + b.ClientLeft - b.ScrollLeft,
		Y:      y + b.ClientTop - b.ScrollTop,
		Width:  b.ScrollWidth,
		Height: b.ScrollHeight,
	}
}

// FractionX converts a page x coordinate into a fraction of r's width. An empty rect yields 0.
func (r Rect) FractionX(pageX float64) float64 {
	return SafeDiv(pageX-r.X, r.Width)
}
