package raymarch

// Pixel is a premultiplied-alpha color.
type Pixel struct {
	R, G, B, A float64
}

// Image is a float RGBA buffer with premultiplied alpha, row 0 at the top.
type Image struct {
	Width, Height int

	// Pix holds 4 values per pixel
	Pix []float64
}

// NewImage allocates a transparent image.
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pix: make([]float64, 4*width*height)}
}

// At returns the pixel at (x, y).
func (m *Image) At(x, y int) Pixel {
	i := 4 * (y*m.Width + x)
	return Pixel{m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]}
}

// Set stores the pixel at (x, y).
func (m *Image) Set(x, y int, p Pixel) {
	i := 4 * (y*m.Width + x)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = p.R, p.G, p.B, p.A
}
