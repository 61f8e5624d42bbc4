package bookmark

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hpungsan/repovault/internal/errors"
)

// importRecord holds the mandatory fields of an imported element.
type importRecord struct {
	Owner string `json:"owner" validate:"required"`
	Repo  string `json:"repo" validate:"required"`
	URL   string `json:"url" validate:"required"`
}

var validate = newValidator()

// newValidator returns a validator that reports JSON field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// EncodeCollection serializes records as a 2-space indented JSON array.
// A nil slice encodes as [].
func EncodeCollection(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return data, nil
}

// DecodeCollection parses an import payload.
// It fails with a parse error if raw is not a JSON array, and with a
// validation error on the first element lacking owner, repo or url.
// The whole payload is rejected on any failure.
func DecodeCollection(raw []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.NewParseError("invalid file format: empty payload")
	}

	var top any
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return nil, errors.NewParseError(fmt.Sprintf("invalid file format: %v", err))
	}
	if _, ok := top.([]any); !ok {
		return nil, errors.NewParseError("invalid format: expected array")
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, errors.NewParseError(fmt.Sprintf("invalid file format: %v", err))
	}

	records := make([]Record, 0, len(elems))
	for i, elem := range elems {
		rec, err := decodeElement(i, elem)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// decodeElement decodes and validates a single imported element.
// owner, repo and url must be non-empty strings; the remaining fields are
// carried over leniently.
func decodeElement(index int, elem json.RawMessage) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(elem, &fields); err != nil {
		return Record{}, errors.NewValidation(index, map[string]string{"_": "must be a bookmark object"})
	}

	var ir importRecord
	typeErrs := map[string]string{}
	for name, dst := range map[string]*string{"owner": &ir.Owner, "repo": &ir.Repo, "url": &ir.URL} {
		raw, ok := fields[name]
		if !ok || isNull(raw) {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			typeErrs[name] = "must be a string"
		}
	}
	if len(typeErrs) > 0 {
		return Record{}, errors.NewValidation(index, typeErrs)
	}

	if err := validate.Struct(ir); err != nil {
		var fieldErrs validator.ValidationErrors
		if !stderrors.As(err, &fieldErrs) {
			return Record{}, errors.NewInternal(err)
		}
		missing := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			missing[fe.Field()] = "is required"
		}
		return Record{}, errors.NewValidation(index, missing)
	}

	category := lenientString(fields["category"])
	if category == "" {
		category = DefaultCategory
	}

	return Record{
		ID:       lenientID(fields["id"]),
		Owner:    ir.Owner,
		Repo:     ir.Repo,
		Category: category,
		Notes:    lenientString(fields["notes"]),
		URL:      ir.URL,
		SavedAt:  lenientString(fields["savedAt"]),
	}, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// lenientString returns a JSON string as-is, "" for null or absent values,
// and the compact JSON text of anything else.
func lenientString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return ""
	}
	return buf.String()
}

// lenientID accepts integers, exponent or fractional numbers and numeric
// strings. Anything else yields 0.
func lenientID(raw json.RawMessage) int64 {
	if isNull(raw) {
		return 0
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0
	}
	if id, err := num.Int64(); err == nil {
		return id
	}
	f, err := num.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}
