package config

import (
	"fmt"
	"strings"
)

// OutputFmt is requested output type.
// ENUM(value, text, html, xhtml)
type OutputFmt int

const (
	OutputFmtValue OutputFmt = iota
	OutputFmtText
	OutputFmtHtml
	OutputFmtXhtml
)

var outputFmtNames = []string{"value", "text", "html", "xhtml"}

// OutputFmtNames returns list of possible string values of OutputFmt.
func OutputFmtNames() []string {
	return append([]string(nil), outputFmtNames...)
}

func (o OutputFmt) String() string {
	if o < 0 || int(o) >= len(outputFmtNames) {
		return fmt.Sprintf("OutputFmt(%d)", int(o))
	}
	return outputFmtNames[o]
}

// IsValid checks if value is one of defined constants.
func (o OutputFmt) IsValid() bool {
	return o >= 0 && int(o) < len(outputFmtNames)
}

// ParseOutputFmt converts string to OutputFmt, case insensitive.
func ParseOutputFmt(name string) (OutputFmt, error) {
	for i, n := range outputFmtNames {
		if strings.EqualFold(n, name) {
			return OutputFmt(i), nil
		}
	}
	return 0, fmt.Errorf("%s is not a valid OutputFmt, try [%s]", name, strings.Join(outputFmtNames, ", "))
}

func (o OutputFmt) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("%d is not a valid OutputFmt", int(o))
	}
	return []byte(o.String()), nil
}

func (o *OutputFmt) UnmarshalText(text []byte) error {
	v, err := ParseOutputFmt(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtValue:
		return ".value.html"
	case OutputFmtText:
		return ".txt"
	case OutputFmtHtml:
		return ".html"
	case OutputFmtXhtml:
		return ".xhtml"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}
