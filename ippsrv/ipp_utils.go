package ippsrv

// contains supplemental functions for value conversion and other convenience.

import (
	"fmt"
	"slices"

	"github.com/OpenPrinting/goipp"
)

const (
	ippNone        goipp.String = "none"
	ippUTF8        goipp.String = "utf-8"
	ippENUS        goipp.String = "en-us"
	ippOctetStream              = "application/octet-stream"
)

// adder is a helper function to add attributes to a group.  An attribute
// without values is added as no-value.
func adder(attrs *goipp.Attributes) func(name string, tag goipp.Tag, values ...goipp.Value) {
	return func(name string, tag goipp.Tag, values ...goipp.Value) {
		if len(values) == 0 {
			tag, values = goipp.TagNoValue, []goipp.Value{goipp.Void{}}
		}
		attr := goipp.MakeAttribute(name, tag, values[0])
		for _, v := range values[1:] {
			attr.Values.Add(tag, v)
		}
		attrs.Add(attr)
	}
}

func stringsToValues[S ~[]E, E ~string](strs S) []goipp.Value {
	values := make([]goipp.Value, len(strs))
	for i, str := range strs {
		values[i] = goipp.String(str)
	}
	return values
}

// ippError carries the status code of a failed operation.
type ippError struct {
	status goipp.Status
	msg    string
}

func (e *ippError) Error() string {
	return fmt.Sprintf("%s: %s", e.status, e.msg)
}

func errorf(status goipp.Status, format string, a ...any) error {
	return &ippError{status: status, msg: fmt.Sprintf(format, a...)}
}

// newResponse returns a response to req with the mandatory operation
// attributes.
func newResponse(req *goipp.Message, status goipp.Status) *goipp.Message {
	m := goipp.NewResponse(goipp.DefaultVersion, status, req.RequestID)
	a := adder(&m.Operation)
	a("attributes-charset", goipp.TagCharset, ippUTF8)
	a("attributes-natural-language", goipp.TagLanguage, ippENUS)
	return m
}

// setGroups lays out the response groups: the operation group followed by
// one group per attribute set.
func setGroups(m *goipp.Message, tag goipp.Tag, sets ...goipp.Attributes) {
	m.Groups = goipp.Groups{{Tag: goipp.TagOperationGroup, Attrs: m.Operation}}
	for _, attrs := range sets {
		m.Groups = append(m.Groups, goipp.Group{Tag: tag, Attrs: attrs})
	}
}

func findAttr(attrs goipp.Attributes, name string) (goipp.Values, bool) {
	for _, attr := range attrs {
		if attr.Name == name && len(attr.Values) > 0 {
			return attr.Values, true
		}
	}
	return nil, false
}

func extractValue[T any](attrs goipp.Attributes, name string) (T, error) {
	var zero T
	vv, ok := findAttr(attrs, name)
	if !ok || len(vv) == 0 {
		return zero, fmt.Errorf("attribute %q not found", name)
	}
	if len(vv) > 1 {
		return zero, fmt.Errorf("attribute %q has multiple values: %d", name, len(vv))
	}
	v := vv[0].V
	if val, ok := v.(T); ok {
		return val, nil
	}
	return zero, fmt.Errorf("attribute %q is not of type %T: %T", name, zero, v)
}

// stringAttr returns the string value of the attribute, or def.
func stringAttr(attrs goipp.Attributes, name string, def string) string {
	v, err := extractValue[goipp.String](attrs, name)
	if err != nil || v == "" {
		return def
	}
	return string(v)
}

// requested returns the requested-attributes keywords.
func requested(attrs goipp.Attributes) []string {
	vv, ok := findAttr(attrs, "requested-attributes")
	if !ok {
		return nil
	}
	var kw []string
	for _, v := range vv {
		if s, ok := v.V.(goipp.String); ok {
			kw = append(kw, string(s))
		}
	}
	return kw
}

// groupKeywords request all attributes of a group.
var groupKeywords = []string{"all", "job-description", "job-template", "printer-description"}

// filterAttrs keeps the requested attributes.  Empty request or a group
// keyword keeps everything.
func filterAttrs(attrs goipp.Attributes, keywords []string) goipp.Attributes {
	if len(keywords) == 0 {
		return attrs
	}
	for _, kw := range keywords {
		if slices.Contains(groupKeywords, kw) {
			return attrs
		}
	}
	var out goipp.Attributes
	for _, attr := range attrs {
		if slices.Contains(keywords, attr.Name) {
			out = append(out, attr)
		}
	}
	return out
}
