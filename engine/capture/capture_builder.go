package capture

// CapturerBuilderOption is a functional option for configuring a Capturer via NewCapturer.
type CapturerBuilderOption func(*capturer)

// WithFormat sets the encoder used by Write. WriteFile always follows the file extension.
func WithFormat(f Format) CapturerBuilderOption {
	return func(c *capturer) {
		c.format = f
	}
}

// WithSupersample is an option builder for frames rendered at factor times the output size.
// Factors below 2 disable downsampling.
//
// Parameters:
//   - factor: the per-axis supersampling factor
//
// Returns:
//   - CapturerBuilderOption: a function that applies the factor to a capturer
func WithSupersample(factor int) CapturerBuilderOption {
	return func(c *capturer) {
		c.downsample = max(factor, 1)
	}
}

// WithOutputSize fixes the output size regardless of the frame size. It takes precedence
// over WithSupersample. Non-positive dimensions are ignored.
func WithOutputSize(width, height int) CapturerBuilderOption {
	return func(c *capturer) {
		if width > 0 && height > 0 {
			c.width, c.height = width, height
		}
	}
}
