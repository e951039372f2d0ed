package purchase

import (
	"embed"
	"path"
	"strings"
)

//go:embed schemas/*.json
var schemas embed.FS

// Schema returns the JSON Schema for the request body of procedure, and false
// when the procedure has no schema.
func Schema(procedure string) ([]byte, bool) {
	name := strings.ReplaceAll(strings.Trim(procedure, "/"), "/", "_") + ".json"
	data, err := schemas.ReadFile(path.Join("schemas", name))
	if err != nil {
		return nil, false
	}
	return data, true
}
