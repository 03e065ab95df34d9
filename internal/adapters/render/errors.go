package render

import "errors"

// Sentinel kinds for rendering errors.
var (
	ErrTemplateNotFound = errors.New("report template not found")
	ErrOutputDir        = errors.New("report output directory not writable")
	ErrConvert          = errors.New("html to pdf conversion failed")
)
