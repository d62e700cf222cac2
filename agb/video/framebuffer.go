package video

const (
	// ScreenWidth and ScreenHeight are the LCD dimensions in pixels.
	ScreenWidth  = 240
	ScreenHeight = 160
)

// FrameBuffer holds the 240x160 ARGB 8888 front buffer. Opaque pixels
// carry 0xFF in the high byte; the renderer uses a zero high byte as the
// transparency key while compositing.
type FrameBuffer struct {
	width  int
	height int
	buffer []uint32
}

// NewFrameBuffer creates a frame buffer with the LCD size.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		width:  ScreenWidth,
		height: ScreenHeight,
		buffer: make([]uint32, ScreenWidth*ScreenHeight),
	}
}

func (fb *FrameBuffer) GetPixel(x, y int) uint32 {
	return fb.buffer[y*fb.width+x]
}

func (fb *FrameBuffer) SetPixel(x, y int, color uint32) {
	fb.buffer[y*fb.width+x] = color
}

// ToSlice returns the backing pixel slice in row-major order.
func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer
}
