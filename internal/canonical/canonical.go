// Package canonical produces an order-independent normal form of a domain
// snapshot and hashes it. Two snapshots are equal iff their canonical
// encodings are byte-identical, regardless of map iteration order or set
// element order.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Form is the canonical rendering of a value. Identical structures always
// render to the identical Form.
type Form string

// Set marks a slice whose element order is not meaningful: elements are
// sorted after encoding. Plain slices keep their order.
type Set []any

// Error reports a value that has no canonical form. It indicates a bug in a
// tool or data loader, not a validation failure.
type Error struct {
	Path   string
	Reason string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return "canonicalize: " + e.Reason
	}
	return fmt.Sprintf("canonicalize %s: %s", e.Path, e.Reason)
}

// Encode converts v into its canonical form.
//
// Maps encode as key-sorted pairs, slices preserve order, Set values sort
// after encoding, and integer-valued floats encode identically to the
// matching integer. Values with no stable rendering (funcs, channels,
// opaque structs) return *Error.
func Encode(v any) (Form, error) {
	var sb strings.Builder
	if err := encode(&sb, v, "$"); err != nil {
		return "", err
	}
	return Form(sb.String()), nil
}

// Hash returns the lowercase hex SHA-256 digest of the form.
func Hash(f Form) string {
	sum := sha256.Sum256([]byte(f))
	return hex.EncodeToString(sum[:])
}

// HashState is Encode followed by Hash.
func HashState(v any) (string, error) {
	f, err := Encode(v)
	if err != nil {
		return "", err
	}
	return Hash(f), nil
}

func encode(sb *strings.Builder, v any, path string) error {
	switch tv := v.(type) {
	case nil:
		sb.WriteString("null")
		return nil
	case bool:
		sb.WriteString(strconv.FormatBool(tv))
		return nil
	case string:
		sb.WriteString(strconv.Quote(tv))
		return nil
	case json.Number:
		f, err := tv.Float64()
		if err != nil {
			return &Error{Path: path, Reason: "malformed number " + tv.String()}
		}
		writeFloat(sb, f)
		return nil
	case int:
		sb.WriteString(strconv.FormatInt(int64(tv), 10))
		return nil
	case int8, int16, int32, int64:
		sb.WriteString(strconv.FormatInt(reflect.ValueOf(tv).Int(), 10))
		return nil
	case uint, uint8, uint16, uint32, uint64:
		sb.WriteString(strconv.FormatUint(reflect.ValueOf(tv).Uint(), 10))
		return nil
	case float32:
		writeFloat(sb, float64(tv))
		return nil
	case float64:
		writeFloat(sb, tv)
		return nil
	case Set:
		return encodeSet(sb, tv, path)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return encodeMap(sb, rv, path)
	case reflect.Slice, reflect.Array:
		return encodeSeq(sb, rv, path)
	default:
		return &Error{Path: path, Reason: "unencodable value of type " + rv.Kind().String()}
	}
}

// writeFloat renders integer-valued floats as integers so that a tool
// writing back a computed 3.0 hashes the same as the loaded 3.
func writeFloat(sb *strings.Builder, f float64) {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		sb.WriteString(strconv.FormatInt(int64(f), 10))
		return
	}
	sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}

func encodeMap(sb *strings.Builder, rv reflect.Value, path string) error {
	type pair struct {
		key  string
		form string
	}
	pairs := make([]pair, 0, rv.Len())
	var sawString, sawNumber bool
	iter := rv.MapRange()
	for iter.Next() {
		key, numeric, err := mapKey(iter.Key(), path)
		if err != nil {
			return err
		}
		if numeric {
			sawNumber = true
		} else {
			sawString = true
		}
		if sawString && sawNumber {
			return &Error{Path: path, Reason: "mixed string and numeric map keys"}
		}
		var vb strings.Builder
		if err := encode(&vb, iter.Value().Interface(), path+"."+key); err != nil {
			return err
		}
		pairs = append(pairs, pair{key: key, form: vb.String()})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	sb.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Quote(p.key))
		sb.WriteByte(':')
		sb.WriteString(p.form)
	}
	sb.WriteByte('}')
	return nil
}

// mapKey requires totally ordered keys: strings sort as themselves, numeric
// keys sort by their decimal rendering. Anything else is unencodable.
func mapKey(kv reflect.Value, path string) (key string, numeric bool, err error) {
	if kv.Kind() == reflect.Interface {
		kv = kv.Elem()
	}
	switch kv.Kind() {
	case reflect.String:
		return kv.String(), false, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(kv.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(kv.Uint(), 10), true, nil
	default:
		return "", false, &Error{Path: path, Reason: "map key of type " + kv.Kind().String() + " is not totally ordered"}
	}
}

func encodeSeq(sb *strings.Builder, rv reflect.Value, path string) error {
	sb.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		if err := encode(sb, rv.Index(i).Interface(), path+"["+strconv.Itoa(i)+"]"); err != nil {
			return err
		}
	}
	sb.WriteByte(']')
	return nil
}

func encodeSet(sb *strings.Builder, set Set, path string) error {
	forms := make([]string, 0, len(set))
	for i, e := range set {
		var vb strings.Builder
		if err := encode(&vb, e, path+"{"+strconv.Itoa(i)+"}"); err != nil {
			return err
		}
		forms = append(forms, vb.String())
	}
	sort.Strings(forms)

	sb.WriteByte('[')
	for i, f := range forms {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f)
	}
	sb.WriteByte(']')
	return nil
}
