package glif

import (
	"errors"

	"github.com/beevik/etree"
)

// Format returns the pretty-printed canonical form of a glif document, the
// representation written to disk by export.
func Format(raw string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return "", err
	}
	root := doc.Root()
	if root == nil {
		return "", errors.New("document has no root element")
	}
	return serializeRoot(root, true)
}

// FormatOrRaw formats raw and falls back to the stored text when it cannot
// be reformatted.
func FormatOrRaw(raw string) string {
	formatted, err := Format(raw)
	if err != nil {
		return raw
	}
	return formatted
}

func serializeRoot(root *etree.Element, indent bool) (string, error) {
	out := etree.NewDocument()
	out.SetRoot(root.Copy())
	if indent {
		out.Indent(2)
	}
	body, err := out.WriteToString()
	if err != nil {
		return "", err
	}
	return XMLProlog + "\n" + body, nil
}
