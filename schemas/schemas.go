// Package schemas embeds the JSON Schemas for the resume content files.
package schemas

import "embed"

// Schema file names
const (
	ResumeBase = "resume_base.schema.json"
	Variant    = "variant.schema.json"
)

// FS holds every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS
