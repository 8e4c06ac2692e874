// Package detection locates text-like areas on a label photo.
//
// The ingredient list is usually the largest paragraph on a product label.
// SuggestTextBlock uses that to propose an initial crop box after upload so
// the user only has to adjust it. The suggestion is a convenience: a crop is
// never taken without the user confirming a selection.
//
// # Algorithm
//
//  1. Shrink the image so its longest side is at most 600 px.
//  2. Mark edge pixels with a simple grayscale gradient threshold.
//  3. Slide windows of typical text-line sizes over an integral image of the
//     edge map, keeping windows with medium edge density and mostly
//     horizontal edge runs.
//  4. Merge overlapping windows and scale the blocks back to source pixels.
//
// # Limitations
//
// This is a heuristic tuned for printed text on a plain background. Busy
// artwork or curved packaging produces poor suggestions.
package detection
