// Package forms holds the detected-field model exchanged with the
// browser-side scanner: the scanner extracts label/placeholder/name/id context
// and stable selectors, this side decides what goes where.
package forms

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/magicfill/magicfill/internal/patterns"
)

// ControlKind is the tag name of the scanned control.
type ControlKind string

const (
	ControlInput    ControlKind = "input"
	ControlTextarea ControlKind = "textarea"
	ControlSelect   ControlKind = "select"
)

// Input sub-types that get special routing.
const (
	InputFile     = "file"
	InputCheckbox = "checkbox"
	InputRadio    = "radio"
)

// DetectedField is a single form control observed on a page. Fields are
// created fresh on every scan and discarded after the fill pass; only the
// selector survives for message-based single-field requests.
type DetectedField struct {
	// Selector is an opaque, scanner-generated stable locator.
	Selector string `json:"selector"`
	// Context is the space-joined free text describing the field: label,
	// aria-label, placeholder, name, id, parent-label text, in that order.
	Context string `json:"context"`
	// SemanticType is a patterns type name or patterns.TypeUnknown.
	SemanticType string `json:"type"`
	// ControlKind is input, textarea or select.
	ControlKind ControlKind `json:"fieldType"`
	// InputType is the input sub-type (text, email, checkbox, file, ...) when
	// ControlKind is input.
	InputType string `json:"inputType,omitempty"`
	// Value is the control's current value at scan time. Used by bulk
	// learning; ignored during resolution.
	Value string `json:"value,omitempty"`
}

// IsFileUpload reports whether the field is a file-upload control. Such fields
// are never resolved; they are routed to a separate bucket for the user.
func (f *DetectedField) IsFileUpload() bool {
	return f.ControlKind == ControlInput && f.InputType == InputFile
}

// UploadLabel names a file-upload field for the user, based on its context.
func (f *DetectedField) UploadLabel() string {
	context := strings.ToLower(f.Context)
	switch {
	case strings.Contains(context, "resume"), strings.Contains(context, "cv"):
		return "Resume"
	case strings.Contains(context, "cover"):
		return "Cover Letter"
	case strings.Contains(context, "transcript"):
		return "Transcript"
	case strings.Contains(context, "portfolio"):
		return "Portfolio"
	default:
		return "File"
	}
}

// ScanDocument is the JSON payload produced by the browser-side scanner for
// one page.
type ScanDocument struct {
	URL      string           `json:"url,omitempty"`
	Hostname string           `json:"hostname,omitempty"`
	Fields   []*DetectedField `json:"fields"`
}

// Len returns the number of detected fields.
func (d *ScanDocument) Len() int {
	return len(d.Fields)
}

// DecodeScan reads a scan document and normalizes it: blank semantic types
// become patterns.TypeUnknown, blank control kinds become input, and fields
// without a selector are rejected.
func DecodeScan(r io.Reader) (*ScanDocument, error) {
	var doc ScanDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding scan document: %w", err)
	}

	for i, field := range doc.Fields {
		if field == nil {
			return nil, fmt.Errorf("scan document field %d is null", i)
		}
		if strings.TrimSpace(field.Selector) == "" {
			return nil, fmt.Errorf("scan document field %d has no selector", i)
		}
		if strings.TrimSpace(field.SemanticType) == "" {
			field.SemanticType = patterns.TypeUnknown
		}
		if field.ControlKind == "" {
			field.ControlKind = ControlInput
		}
	}

	return &doc, nil
}

// ReadScanFile loads a scan document from disk.
func ReadScanFile(path string) (*ScanDocument, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scan file: %w", err)
	}
	defer file.Close()

	return DecodeScan(file)
}

// Classify fills in the semantic type for any field still marked unknown,
// using the pattern library. Scanners usually pre-compute the type; this
// covers documents that only carry raw context.
func (d *ScanDocument) Classify() {
	for _, field := range d.Fields {
		if field.SemanticType == patterns.TypeUnknown {
			field.SemanticType = patterns.MatchType(field.Context)
		}
	}
}
