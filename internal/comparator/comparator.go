// Package comparator classifies a profile against the live configuration by
// structural JSON equality, optionally ignoring a set of top-level fields.
package comparator

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/aleister1102/cfgswitch/internal/common"
)

// ReasonExpectedObject is the Error reason when either document is not a JSON object.
const ReasonExpectedObject = "expected object"

// Compare parses both documents and classifies profile against live.
//
// Objects compare without regard to key order, arrays element by element in order.
// Integers compare exactly at any magnitude and never equal a number written
// with a fraction or exponent, so 1 and 1.0 differ while 1.0 and 1.00 match. Keys in ignored are removed from both sides, whichever side
// they appear on, before the partial comparison.
func Compare(live, profile []byte, ignored IgnoredFieldSet) Status {
	liveValue, err := decode(live)
	if err != nil {
		return ErrorStatus(common.NewParseError("live configuration", err).Error())
	}

	profileValue, err := decode(profile)
	if err != nil {
		return ErrorStatus(common.NewParseError("profile", err).Error())
	}

	return CompareValues(liveValue, profileValue, ignored)
}

// CompareValues classifies already decoded documents. Numbers may be json.Number
// or float64.
func CompareValues(live, profile any, ignored IgnoredFieldSet) Status {
	live, profile = normalize(live), normalize(profile)
	liveObj, ok := live.(map[string]any)
	if !ok {
		return ErrorStatus(ReasonExpectedObject)
	}
	profileObj, ok := profile.(map[string]any)
	if !ok {
		return ErrorStatus(ReasonExpectedObject)
	}

	if reflect.DeepEqual(liveObj, profileObj) {
		return Status{Kind: FullMatch}
	}

	if ignored.Len() > 0 && reflect.DeepEqual(withoutIgnored(liveObj, ignored), withoutIgnored(profileObj, ignored)) {
		return Status{Kind: PartialMatch}
	}

	return Status{Kind: NoMatch}
}

// Equal reports deep equality of two JSON documents. Invalid input is never equal.
func Equal(a, b []byte) bool {
	av, err := decode(a)
	if err != nil {
		return false
	}
	bv, err := decode(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(normalize(av), normalize(bv))
}

// decode parses one JSON document keeping numbers as json.Number.
func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("unexpected end of JSON input")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid character after top-level value")
	}
	return v, nil
}

// integer is the canonical decimal form of a JSON integer literal.
type integer string

// normalize replaces json.Number values with comparable ones: integer for
// literals without fraction or exponent, float64 for the rest.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	case json.Number:
		return normalizeNumber(t)
	default:
		return v
	}
}

func normalizeNumber(n json.Number) any {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, ok := new(big.Int).SetString(s, 10); ok {
			return integer(i.String())
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return s
	}
	return f
}

func withoutIgnored(obj map[string]any, ignored IgnoredFieldSet) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if ignored.Contains(k) {
			continue
		}
		out[k] = v
	}
	return out
}
