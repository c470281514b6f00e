package devices

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/cpsim/core/model"
)

// ErrInvalidDirectory is returned for directories that fail validation.
var ErrInvalidDirectory = errors.New("invalid device directory")

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("schema.json", schemaJSON)

// Format is the encoding of a directory file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatOf guesses the format from the file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads the directory at path. An unreadable file is an
// ErrInvalidDirectory that still wraps the underlying os error.
func Load(path string) ([]model.Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	devs, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return devs, nil
}

// Parse decodes a directory. Devices are returned template by template in
// document order, each template's list in its own order. A missing id
// defaults to the device name.
func Parse(data []byte, format Format) ([]model.Device, error) {
	var (
		devs []model.Device
		err  error
	)
	switch format {
	case FormatYAML:
		devs, err = parseYAML(data)
	default:
		devs, err = parseJSON(data)
	}
	if err != nil {
		return nil, err
	}
	seen := make(map[string]string, len(devs))
	for i := range devs {
		if devs[i].ID == "" {
			devs[i].ID = devs[i].Name
		}
		if tmpl, ok := seen[devs[i].ID]; ok {
			return nil, fmt.Errorf("%w: duplicate id %q in %s and %s", ErrInvalidDirectory, devs[i].ID, tmpl, devs[i].Template)
		}
		seen[devs[i].ID] = devs[i].Template
	}
	return devs, nil
}

func parseJSON(data []byte) ([]model.Device, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}
	var (
		devs   []model.Device
		decErr error
	)
	gjson.ParseBytes(data).ForEach(func(key, list gjson.Result) bool {
		list.ForEach(func(_, entry gjson.Result) bool {
			var d model.Device
			if err := json.Unmarshal([]byte(entry.Raw), &d); err != nil {
				decErr = err
				return false
			}
			d.Template = key.String()
			devs = append(devs, d)
			return true
		})
		return decErr == nil
	})
	if decErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, decErr)
	}
	return devs, nil
}

func parseYAML(data []byte) ([]model.Device, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDirectory)
	}
	root := doc.Content[0]

	var generic any
	if err := root.Decode(&generic); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	// round-trip through JSON so the validator sees JSON types
	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	var asJSON any
	if err := json.Unmarshal(raw, &asJSON); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	if err := validate(asJSON); err != nil {
		return nil, err
	}

	var devs []model.Device
	for i := 0; i+1 < len(root.Content); i += 2 {
		tmpl := root.Content[i].Value
		for _, item := range root.Content[i+1].Content {
			var d model.Device
			if err := item.Decode(&d); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
			}
			d.Template = tmpl
			devs = append(devs, d)
		}
	}
	return devs, nil
}

func validate(doc any) error {
	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %s", ErrInvalidDirectory, describe(verr))
		}
		return fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	return nil
}

// describe flattens the leaf causes of a validation error.
func describe(err *jsonschema.ValidationError) string {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return fmt.Sprintf("%s: %s", loc, err.Message)
	}
	var buf bytes.Buffer
	for i, c := range err.Causes {
		if i > 0 {
			buf.WriteString("; ")
		}
		buf.WriteString(describe(c))
	}
	return buf.String()
}
