package devices

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kilianp07/cpsim/core/model"
)

// Generate builds count devices named {template}_{i} under template.
func Generate(count int, template string) []model.Device {
	out := make([]model.Device, count)
	for i := range out {
		out[i] = model.Device{Name: fmt.Sprintf("%s_%d", template, i), Template: template}
	}
	return out
}

// Encode writes devs as a JSON directory, grouping consecutive devices by
// template and keeping their order. Ids equal to the name are omitted.
func Encode(w io.Writer, devs []model.Device) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < len(devs); {
		tmpl := devs[i].Template
		j := i
		for j < len(devs) && devs[j].Template == tmpl {
			j++
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tmpl)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		group := make([]model.Device, 0, j-i)
		for _, d := range devs[i:j] {
			if d.ID == d.Name {
				d.ID = ""
			}
			group = append(group, d)
		}
		list, err := json.Marshal(group)
		if err != nil {
			return err
		}
		buf.Write(list)
		i = j
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}

// WriteFile encodes devs into path.
func WriteFile(path string, devs []model.Device) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, devs); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
