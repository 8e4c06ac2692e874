//go:build !cgo

package ocr

import "errors"

// NewGosseractEngine is unavailable in binaries built without cgo.
func NewGosseractEngine(tessdataDir string) (Engine, error) {
	return nil, errors.New("gosseract requires a cgo build")
}
