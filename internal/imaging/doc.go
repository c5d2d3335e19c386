// Package imaging holds the raster operations the upscale orchestrator needs
// around the neural engine: decoding and encoding, the three resampling
// policies, and center cropping.
//
// Every operation returns a new image; inputs are never written to. Pixel
// layout is preserved through resampling and cropping (a *image.Gray stays a
// *image.Gray). Decode normalizes layouts that cannot be drawn into
// (YCbCr, paletted, CMYK) to *image.RGBA once, at the boundary.
//
// Two resampling backends exist:
//
//   - DrawResampler (default): pure Go, golang.org/x/image/draw kernels.
//   - CVResampler: OpenCV via gocv. Built with `-tags=gocv`; without the tag
//     NewCVResampler returns an error.
package imaging
