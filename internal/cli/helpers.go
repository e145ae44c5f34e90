package cli

import (
	"encoding/json"
	"io"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optInt(v int, set bool) *int {
	if !set {
		return nil
	}
	return &v
}

func optFloat(v float64, set bool) *float64 {
	if !set {
		return nil
	}
	return &v
}
