package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/awesomecuber/tron/internal/game"
)

// Emits the JSON schema for game.Tuning. Peers refuse to match unless
// their tuning checksums agree, so deployments validate override files
// against this document before distributing them.
func main() {
	out := flag.String("out", "", "file to write the schema to; prints to stdout when omitted")
	flag.Parse()

	data, err := tuningSchemaJSON()
	if err != nil {
		log.Fatalf("build schema: %v", err)
	}

	if *out == "" {
		os.Stdout.Write(data)
		return
	}
	if err := writeAtomically(*out, data); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}
	fmt.Printf("wrote %s\n", *out)
}

func tuningSchemaJSON() ([]byte, error) {
	reflector := jsonschema.Reflector{AllowAdditionalProperties: true}
	schema := reflector.Reflect(new(game.Tuning))
	schema.Title = "Arena Tuning"
	schema.Description = "Validates simulation tuning files; peers must load identical values"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// writeAtomically stages the schema in a temp file and renames it into
// place, never leaving a torn file at the target path.
func writeAtomically(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
