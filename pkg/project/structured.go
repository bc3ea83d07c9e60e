package project

import (
	"fmt"
	"math"

	"github.com/beevik/etree"
	"howett.net/plist"

	kerrors "github.com/go-drift/kernel/pkg/errors"
)

// EditPlist decodes the property list at path, passes its root dictionary to
// edit and writes it back as an XML property list.
func (t *Tree) EditPlist(path string, edit func(dict map[string]any) error) error {
	const op = "project.EditPlist"

	data, err := t.ReadFile(path)
	if err != nil {
		return err
	}
	dict := map[string]any{}
	if _, err := plist.Unmarshal(data, &dict); err != nil {
		return kerrors.Resource(op, fmt.Errorf("%s: %w", path, err))
	}
	if err := edit(dict); err != nil {
		return err
	}
	out, err := plist.MarshalIndent(dict, plist.XMLFormat, "\t")
	if err != nil {
		return kerrors.Resource(op, fmt.Errorf("%s: %w", path, err))
	}
	return t.WriteFile(path, append(out, '\n'))
}

// EditXML parses the XML document at path, passes it to edit and writes it
// back indented by four spaces.
func (t *Tree) EditXML(path string, edit func(doc *etree.Document) error) error {
	const op = "project.EditXML"

	data, err := t.ReadFile(path)
	if err != nil {
		return err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return kerrors.Resource(op, fmt.Errorf("%s: %w", path, err))
	}
	if doc.Root() == nil {
		return kerrors.Resource(op, fmt.Errorf("%s: document has no root element", path))
	}
	if err := edit(doc); err != nil {
		return err
	}
	doc.Indent(4)
	out, err := doc.WriteToBytes()
	if err != nil {
		return kerrors.Resource(op, fmt.Errorf("%s: %w", path, err))
	}
	return t.WriteFile(path, out)
}

// PlistValue converts a value from the configuration data model into one
// the plist encoder writes with the intended type: whole numbers become
// integers rather than reals.
func PlistValue(v any) any {
	switch val := v.(type) {
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return int64(val)
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, x := range val {
			out[k] = PlistValue(x)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, x := range val {
			out[i] = PlistValue(x)
		}
		return out
	default:
		return v
	}
}

// MergePlist deep-merges overrides into dict. Dictionaries merge key by key;
// any other value replaces the existing one.
func MergePlist(dict, overrides map[string]any) {
	for k, v := range overrides {
		src, srcIsMap := v.(map[string]any)
		dst, dstIsMap := dict[k].(map[string]any)
		if srcIsMap && dstIsMap {
			MergePlist(dst, src)
			continue
		}
		dict[k] = PlistValue(v)
	}
}
