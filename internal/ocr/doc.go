// Package ocr extracts text from a cropped label region with Tesseract.
//
// Two backends implement Engine:
//
//   - GosseractEngine binds libtesseract in-process through gosseract/v2 and
//     is only available in cgo builds.
//   - ExecEngine runs the tesseract command-line program and needs nothing
//     but the binary on PATH.
//
// NewEngine picks one from configuration; "auto" tries gosseract first.
//
// Extractor owns the fixed preprocessing applied before every call:
// grayscale conversion, a contrast multiplier of 2.0 (configurable up to
// 2.5), LSTM engine mode and page segmentation mode 6 (a single uniform
// block of text). The language defaults to English.
//
// # Prerequisites
//
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// The cgo backend additionally needs the libtesseract and libleptonica
// development headers at build time.
package ocr
