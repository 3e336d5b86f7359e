// Command generate-schema emits a JSON schema for the driftfs
// configuration file, for editor completion and CI validation.
//
// Usage: generate-schema [output-file]
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/driftlab/driftfs/pkg/config"
)

func main() {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		// Inline every definition so the schema is self-contained.
		DoNotReference: true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Title = "driftfs Configuration"
	schema.Description = "Configuration schema for driftfs"
	schema.Version = "1.0.0"

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate-schema: %v\n", err)
		os.Exit(1)
	}
	out = append(out, '\n')

	path := "config.schema.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "generate-schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", path)
}
