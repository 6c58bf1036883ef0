// Package appfs exposes files embedded into the binary: goose SQL migrations,
// email templates and static assets.
package appfs

import "embed"

//go:embed assets migrations templates
var FS embed.FS
