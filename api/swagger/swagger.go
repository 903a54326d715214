// Package swagger embeds the OpenAPI document of the users API.
package swagger

import _ "embed"

// DocPath is where the document is served.
const DocPath = "/swagger/users.swagger.json"

//go:embed users.swagger.json
var Doc []byte
