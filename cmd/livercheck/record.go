package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liver-predict/internal/domain"
	"github.com/liver-predict/pkg/clinical"
)

// recordInput collects a clinical record from flags and an optional JSON file.
// Flags override file values.
type recordInput struct {
	file   string
	values map[domain.Field]*string
}

func flagName(f domain.Field) string {
	return strings.ReplaceAll(string(f), "_", "-")
}

func addRecordFlags(cmd *cobra.Command, in *recordInput) {
	in.values = make(map[domain.Field]*string, len(domain.AllFields))
	for _, info := range clinical.Fields {
		usage := info.Label
		if info.Unit != "" {
			usage += " (" + info.Unit + ")"
		}
		if info.Field == domain.FieldGender {
			usage += ": 0/female or 1/male"
		}
		in.values[info.Field] = cmd.Flags().String(flagName(info.Field), "", usage)
	}
	cmd.Flags().StringVarP(&in.file, "file", "f", "", "read the record from a JSON file (\"-\" for stdin)")
}

// raw merges the file and the flags that were set on cmd.
func (in *recordInput) raw(cmd *cobra.Command) (clinical.RawRecord, error) {
	raw := clinical.RawRecord{}

	if in.file != "" {
		body, err := readRecordFile(in.file)
		if err != nil {
			return nil, err
		}
		raw = clinical.FromJSON(body)
	}

	for _, f := range domain.AllFields {
		if !cmd.Flags().Changed(flagName(f)) {
			continue
		}
		value := normaliseGender(f, *in.values[f])
		parsed := clinical.ParseRaw(map[string]string{string(f): value})
		raw[f] = parsed[f]
	}
	return raw, nil
}

func (in *recordInput) empty(cmd *cobra.Command) bool {
	if in.file != "" {
		return false
	}
	for _, f := range domain.AllFields {
		if cmd.Flags().Changed(flagName(f)) {
			return false
		}
	}
	return true
}

func normaliseGender(f domain.Field, value string) string {
	if f != domain.FieldGender {
		return value
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "female", "f":
		return "0"
	case "male", "m":
		return "1"
	}
	return value
}

func readRecordFile(path string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("record file is not a JSON object: %w", err)
	}
	return body, nil
}
