// Package data holds the embedded catalogs (models, accelerators, stack components).
package data

import _ "embed"

//go:embed models.json
var ModelsJSON []byte

//go:embed accelerators.yaml
var AcceleratorsYAML []byte

//go:embed components.yaml
var ComponentsYAML []byte
