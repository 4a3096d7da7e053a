// Package swagger embeds the OpenAPI document of the companion backend.
package swagger

import _ "embed"

//go:embed backend.swagger.json
var BackendJSON []byte
