package types

// TissueTumorKey is the string annotation that accumulates every
// "Tissue/Tumor" cell of a dataset.
const TissueTumorKey = "Tissue_Tumor"

// ValueKind tags an AnnotationValue.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInteger
	KindReal
	KindDate
)

func (k ValueKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// AnnotationValue is a single classified annotation cell. Only the field
// matching Kind is meaningful; Date values keep their source text.
type AnnotationValue struct {
	Kind    ValueKind
	Text    string
	Integer int64
	Real    float64
}

// StringValue returns a string annotation value.
func StringValue(s string) AnnotationValue { return AnnotationValue{Kind: KindString, Text: s} }

// DateValue returns a date annotation value.
func DateValue(s string) AnnotationValue { return AnnotationValue{Kind: KindDate, Text: s} }

// IntegerValue returns an integer annotation value.
func IntegerValue(i int64) AnnotationValue { return AnnotationValue{Kind: KindInteger, Integer: i} }

// RealValue returns a real annotation value.
func RealValue(f float64) AnnotationValue { return AnnotationValue{Kind: KindReal, Real: f} }

// Annotations is the annotation document of a dataset. A key is present in
// at most one bucket.
type Annotations struct {
	StringAnnotations map[string][]string  `json:"stringAnnotations"`
	LongAnnotations   map[string][]int64   `json:"longAnnotations"`
	DoubleAnnotations map[string][]float64 `json:"doubleAnnotations"`
	DateAnnotations   map[string][]string  `json:"dateAnnotations"`
}

// NewAnnotations returns empty buckets with the Tissue_Tumor list in place.
func NewAnnotations() *Annotations {
	return &Annotations{
		StringAnnotations: map[string][]string{TissueTumorKey: {}},
		LongAnnotations:   map[string][]int64{},
		DoubleAnnotations: map[string][]float64{},
		DateAnnotations:   map[string][]string{},
	}
}

// Set stores v as the single value of key, removing key from every other
// bucket.
func (a *Annotations) Set(key string, v AnnotationValue) {
	a.remove(key)

	switch v.Kind {
	case KindInteger:
		a.LongAnnotations[key] = []int64{v.Integer}
	case KindReal:
		a.DoubleAnnotations[key] = []float64{v.Real}
	case KindDate:
		a.DateAnnotations[key] = []string{v.Text}
	default:
		a.StringAnnotations[key] = []string{v.Text}
	}
}

// AppendString appends s to the string list under key.
func (a *Annotations) AppendString(key, s string) {
	list, ok := a.StringAnnotations[key]
	if !ok {
		a.remove(key)
	}

	a.StringAnnotations[key] = append(list, s)
}

// Len returns the number of keys across all buckets.
func (a *Annotations) Len() int {
	return len(a.StringAnnotations) + len(a.LongAnnotations) + len(a.DoubleAnnotations) + len(a.DateAnnotations)
}

// Payload returns the buckets as the generic document PUT to the repository.
func (a *Annotations) Payload() map[string]any {
	return map[string]any{
		"stringAnnotations": a.StringAnnotations,
		"longAnnotations":   a.LongAnnotations,
		"doubleAnnotations": a.DoubleAnnotations,
		"dateAnnotations":   a.DateAnnotations,
	}
}

func (a *Annotations) remove(key string) {
	delete(a.StringAnnotations, key)
	delete(a.LongAnnotations, key)
	delete(a.DoubleAnnotations, key)
	delete(a.DateAnnotations, key)
}
