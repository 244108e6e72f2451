package cli

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/chaz8081/langid/internal/langid"
)

// field is one key/value pair of a JSON object. Objects are written from a
// slice so the key order is fixed.
type field struct {
	key   string
	value any
}

// writeObject writes fields as a single-line JSON object using ", " and ": "
// as separators, followed by a newline.
func writeObject(w io.Writer, fields ...field) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := encodeValue(&buf, f.key); err != nil {
			return err
		}
		buf.WriteString(": ")
		if err := encodeValue(&buf, f.value); err != nil {
			return err
		}
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func encodeValue(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

func writeResult(w io.Writer, r langid.Result) error {
	return writeObject(w,
		field{"language", r.Language},
		field{"confidence", r.Confidence},
	)
}

func writeError(w io.Writer, err error) error {
	return writeObject(w, field{"error", err.Error()})
}
