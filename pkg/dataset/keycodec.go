package dataset

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/eljefe6a/kite/pkg/errors"
)

// EncodeRowKey encodes ordered key parts into the storage row key. The
// encoding is type-tagged and length-delimited so distinct part sequences
// can never collide, and callers can rebuild the same key from the same
// typed parts.
func EncodeRowKey(parts []interface{}) (string, error) {
	var b strings.Builder
	for i, part := range parts {
		tag, s, err := formatKeyPart(part)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrorTypeValidation,
				"key part "+strconv.Itoa(i)+" cannot be encoded")
		}
		b.WriteByte(tag)
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String(), nil
}

// formatKeyPart returns a one-byte type tag and the part's string form.
// Parts must be typed the way the schema declares them; an int field is
// int32, a long is int64 or int.
func formatKeyPart(part interface{}) (byte, string, error) {
	switch v := part.(type) {
	case string:
		return 's', v, nil
	case int32:
		return 'i', strconv.FormatInt(int64(v), 10), nil
	case int64:
		return 'l', strconv.FormatInt(v, 10), nil
	case int:
		return 'l', strconv.FormatInt(int64(v), 10), nil
	case bool:
		if v {
			return 'b', "t", nil
		}
		return 'b', "f", nil
	case float32:
		return 'f', strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return 'd', strconv.FormatFloat(v, 'g', -1, 64), nil
	case []byte:
		return 'x', hex.EncodeToString(v), nil
	case nil:
		return 0, "", errors.New(errors.ErrorTypeValidation, "key part has no value")
	default:
		return 0, "", errors.Newf(errors.ErrorTypeValidation,
			"unsupported key part type %T", part)
	}
}
