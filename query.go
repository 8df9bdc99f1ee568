package sqlcore

import "encoding/json"

// PreparedQuery carries SQL text plus an ordered argument list under
// construction. It is tied to a specific driver tag: a PooledConn or Tx of
// a different tag rejects it with ErrDriverMismatch.
//
// Nothing prevents reuse after execution, but callers should treat a query
// as single-shot once it has been bound and passed to Fetch/Execute.
type PreparedQuery struct {
	tag     DriverTag
	sqlText string
	args    []any
}

// DriverTag reports which backend this query was built for.
func (q *PreparedQuery) DriverTag() DriverTag { return q.tag }

// SQL returns the underlying SQL text.
func (q *PreparedQuery) SQL() string { return q.sqlText }

// BindValue appends one positional argument, choosing its encoding from
// Value's variant:
//
//	Null              -> SQL NULL
//	String             -> string
//	Bool               -> bool
//	Float              -> float64
//	Unsigned integer   -> float64 (lossy above 2^53, see encodeArg)
//	Signed integer     -> int64
//	Array/Object/other -> textual JSON serialization
//
// It appends to q.args in place; no ownership-transfer constraint applies
// here, so there's no need to move the argument slot out and back in.
func (q *PreparedQuery) BindValue(v Value) error {
	if q.tag == DriverNone {
		return ErrNotInitialized
	}

	arg, err := encodeArg(v)
	if err != nil {
		return err
	}
	q.args = append(q.args, arg)
	return nil
}

func encodeArg(v Value) (any, error) {
	switch v.Kind() {
	case KindNull:
		return nil, nil
	case KindString:
		s, _ := v.AsString()
		return s, nil
	case KindBool:
		b, _ := v.AsBool()
		return b, nil
	case KindFloat:
		f, _ := v.AsFloat()
		return f, nil
	case KindUnsigned:
		// Lossy above 2^53: database/sql has no native uint64 binding, and
		// every backend here accepts a numeric literal, so this goes
		// through float64 rather than stringifying large values.
		u, _ := v.AsUnsigned()
		return float64(u), nil
	case KindInteger:
		i, _ := v.AsInteger()
		return i, nil
	default: // KindArray, KindObject
		buf, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(buf), nil
	}
}
