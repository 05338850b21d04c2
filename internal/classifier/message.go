package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// UnknownError is the message used for a nil raw error.
const UnknownError = "unknown error"

// Message coerces an arbitrary error value to text.
//
// Errors and Stringers use their own text, strings and byte slices are taken as-is, and any other
// value is rendered as JSON so an embedded {"error":{"code":...}} stays discoverable. Panics raised
// by Error or String methods are recovered.
func Message(raw any) string {
	msg, _ := readMessage(raw)
	return msg
}

// readMessage reports ok=false when an Error or String method panicked.
func readMessage(raw any) (msg string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			msg, ok = fmt.Sprintf("unreadable error value (%T)", raw), false
		}
	}()
	return coerce(raw), true
}

func coerce(raw any) string {
	switch v := raw.(type) {
	case nil:
		return UnknownError
	case string:
		return v
	case []byte:
		return string(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprint(raw)
	}
	return string(b)
}

// embeddedCode parses the widest {...} span in message and returns a truthy error.code from it.
// Parse failures are not errors.
func embeddedCode(message string) (Code, bool) {
	span := jsonObjectRe.FindString(message)
	if span == "" {
		return CodeNone, false
	}

	var envelope struct {
		Error struct {
			Code any `json:"code"`
		} `json:"error"`
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(span)))
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil {
		return CodeNone, false
	}

	switch v := envelope.Error.Code.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil || f == 0 {
			return CodeNone, false
		}
		if f == float64(int64(f)) {
			return Code(strconv.FormatInt(int64(f), 10)), true
		}
		return Code(v.String()), true
	case string:
		if v == "" {
			return CodeNone, false
		}
		return Code(v), true
	case bool:
		if !v {
			return CodeNone, false
		}
		return Code("true"), true
	}
	return CodeNone, false
}
