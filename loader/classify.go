package loader

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/helix-tools/metadata-loader/types"
)

// FieldKind says where a dataset CSV cell goes.
type FieldKind int

const (
	// FieldAnnotation cells become a typed annotation under their header.
	FieldAnnotation FieldKind = iota
	// FieldPrimary cells set a primary dataset attribute.
	FieldPrimary
	// FieldSkip cells are dropped.
	FieldSkip
	// FieldTissueTumor cells are appended to the Tissue_Tumor list.
	FieldTissueTumor
)

// tissueTumorHeader is the only multi-valued column of the dataset CSV.
const tissueTumorHeader = "Tissue/Tumor"

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeHeaderName replaces every run of whitespace with a single "_".
func NormalizeHeaderName(name string) string {
	return whitespaceRun.ReplaceAllString(name, "_")
}

// NormalizeHeader applies NormalizeHeaderName to every column.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = NormalizeHeaderName(h)
	}
	return out
}

// primaryFields maps normalised CSV headers to dataset attributes.
var primaryFields = map[string]string{}

func init() {
	for header, attr := range map[string]string{
		"name":          "name",
		"description":   "description",
		"Investigator":  "creator",
		"Creation Date": "creationDate",
		"Status":        "status",
		"date_released": "releaseDate",
		"version":       "version",
	} {
		primaryFields[NormalizeHeaderName(header)] = attr
	}
}

var skipFields = map[string]bool{
	"db_id":                    true,
	"user_agreement_file_path": true,
	"readme_file_path":         true,
}

// Classification is the routing decision for one cell.
type Classification struct {
	Kind FieldKind

	// Attribute is the dataset attribute for FieldPrimary.
	Attribute string

	// Value is set for FieldAnnotation and FieldTissueTumor.
	Value types.AnnotationValue
}

// Classify routes a cell by its normalised header, checking in order:
// primary field, skip list, "date" in the header, Tissue/Tumor, a numeric
// value, and finally falling back to a string annotation.
func Classify(header, value string) Classification {
	if attr, ok := primaryFields[header]; ok {
		if attr == "name" {
			value = strings.ReplaceAll(value, "_", " ")
		}
		return Classification{Kind: FieldPrimary, Attribute: attr, Value: types.StringValue(value)}
	}

	if skipFields[header] {
		return Classification{Kind: FieldSkip}
	}

	if strings.Contains(strings.ToLower(header), "date") {
		return Classification{Kind: FieldAnnotation, Value: types.DateValue(value)}
	}

	if header == tissueTumorHeader {
		return Classification{Kind: FieldTissueTumor, Value: types.StringValue(value)}
	}

	if v, ok := parseNumber(value); ok {
		return Classification{Kind: FieldAnnotation, Value: v}
	}

	return Classification{Kind: FieldAnnotation, Value: types.StringValue(value)}
}

// parseNumber parses a finite decimal number. Whole numbers that fit in an
// int64 are integers; everything else is real.
func parseNumber(s string) (types.AnnotationValue, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xX_") {
		return types.AnnotationValue{}, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return types.AnnotationValue{}, false
	}

	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return types.IntegerValue(int64(f)), true
	}

	return types.RealValue(f), true
}
