// Package config provides the generic JSON config/registry loader used by
// cmd/smtpd and maildirhandler, adapted from the teacher's
// helpers.DecodeFile (the teacher's one-function helpers package is
// consolidated here, its sole export unchanged in behavior).
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DecodeFile opens fileName and JSON-decodes its contents into v.
func DecodeFile(fileName string, v interface{}) error {
	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("config: could not open file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("config: could not parse file: %w", err)
	}
	return nil
}

// EncodeFile JSON-encodes v (indented, for readability as checked-in
// fixtures) and writes it to fileName.
func EncodeFile(fileName string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("config: could not encode: %w", err)
	}
	if err := os.WriteFile(fileName, data, 0644); err != nil {
		return fmt.Errorf("config: could not write file: %w", err)
	}
	return nil
}
