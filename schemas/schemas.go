// Package schemas embeds the JSON Schemas for the wire protocol and the
// snapshot payload so validators never depend on the working directory.
package schemas

import "embed"

//go:embed *.schema.json
var FS embed.FS
