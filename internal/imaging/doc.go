// Package imaging holds the pixel-level steps of the label scanning pipeline.
//
// It decodes uploaded label photos, maps crop selections from the display
// canvas back to source pixels, crops at full resolution, prepares regions for
// OCR, and renders the selection overlay shown to the user.
//
// # Coordinate Spaces
//
// Two coordinate spaces are involved:
//   - Source space: pixels of the SourceImage after the upload size cap.
//   - Display space: pixels of the canvas the user draws on, which may be
//     narrower than the source. DisplayScale = displayWidth / sourceWidth.
//
// A Region is always in source space by the time it reaches Crop. Selector
// output is converted with MapToSource; an overlay for the canvas is produced
// with Region.Scaled.
//
// All coordinates are 0-based with (0,0) at the top-left corner. For regions,
// (Left, Top) is inclusive and (Left+Width, Top+Height) is exclusive.
//
// # Error Handling
//
// ErrNoSelection marks a missing or zero-area crop. Callers must check for it
// before invoking OCR. ErrUnsupportedFormat marks uploads that are neither
// JPEG nor PNG.
//
// # Thread Safety
//
// Functions are stateless. SourceImage values are immutable after Decode and
// may be shared between goroutines.
package imaging
