// Package ingest loads question record files into raw JSON records.
//
// Supported layouts: a JSON array of records, a JSON object with a
// "questions" array, a single JSON record, JSON Lines (.jsonl, .ndjson),
// and the same array or envelope layouts in YAML (.yaml, .yml). Records
// are returned undecoded; checking them is the validator's job.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is an input file layout.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Error is a load failure. Index is the 0-based record index, or -1 when
// the failure is not tied to one record.
type Error struct {
	Path  string
	Index int
	Err   error
}

func (e *Error) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: record %d: %v", e.Path, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// DetectFormat picks a format from the file extension. Unknown
// extensions are read as JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ParseFormat converts a --input-format style name to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatJSONL, "ndjson":
		return FormatJSONL, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown input format %q (want json, jsonl or yaml)", s)
}

// LoadFile reads the records in path.
func LoadFile(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Index: -1, Err: err}
	}
	return Parse(path, data, DetectFormat(path))
}

// LoadReader reads all of r and parses it as format. name is used in
// errors only.
func LoadReader(name string, r io.Reader, format Format) ([]json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{Path: name, Index: -1, Err: err}
	}
	return Parse(name, data, format)
}

// Parse splits data into raw records.
func Parse(name string, data []byte, format Format) ([]json.RawMessage, error) {
	switch format {
	case FormatJSONL:
		return parseJSONL(name, data)
	case FormatYAML:
		return parseYAML(name, data)
	default:
		return parseJSON(name, data)
	}
}

type envelope struct {
	Questions []json.RawMessage `json:"questions"`
}

func parseJSON(name string, data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, &Error{Path: name, Index: -1, Err: fmt.Errorf("parse json: %w", err)}
		}
		return records, nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, &Error{Path: name, Index: -1, Err: fmt.Errorf("parse json: %w", err)}
		}
		if _, isRecord := obj["type"]; !isRecord {
			if _, ok := obj["questions"]; ok {
				var env envelope
				if err := json.Unmarshal(trimmed, &env); err != nil {
					return nil, &Error{Path: name, Index: -1, Err: fmt.Errorf("parse questions envelope: %w", err)}
				}
				return env.Questions, nil
			}
		}
		return []json.RawMessage{json.RawMessage(trimmed)}, nil
	}

	return nil, &Error{Path: name, Index: -1, Err: fmt.Errorf("expected a JSON array or object")}
}

// parseJSONL keeps malformed lines as records so they are reported per
// record instead of failing the file.
func parseJSONL(name string, data []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		records = append(records, json.RawMessage(bytes.Clone(line)))
	}
	if err := sc.Err(); err != nil {
		return nil, &Error{Path: name, Index: len(records), Err: err}
	}
	return records, nil
}

func parseYAML(name string, data []byte) ([]json.RawMessage, error) {
	var doc any
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, &Error{Path: name, Index: -1, Err: fmt.Errorf("parse yaml: %w", err)}
	}
	var extra any
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return nil, &Error{Path: name, Index: -1, Err: fmt.Errorf("parse yaml: multiple documents are not supported")}
		}
		return nil, &Error{Path: name, Index: -1, Err: fmt.Errorf("parse yaml: %w", err)}
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		if qs, ok := v["questions"].([]any); ok {
			if _, isRecord := v["type"]; !isRecord {
				items = qs
				break
			}
		}
		items = []any{v}
	case nil:
		return nil, nil
	default:
		return nil, &Error{Path: name, Index: -1, Err: fmt.Errorf("expected a YAML sequence or mapping")}
	}

	records := make([]json.RawMessage, 0, len(items))
	for i, it := range items {
		raw, err := json.Marshal(it)
		if err != nil {
			// Keep the item's position; a JSON string is never a record,
			// so validation reports it as unparseable.
			conv := &Error{Path: name, Index: i, Err: fmt.Errorf("convert to json: %w", err)}
			raw, _ = json.Marshal(conv.Error())
		}
		records = append(records, raw)
	}
	return records, nil
}
