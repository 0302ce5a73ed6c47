package batch

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Render converts one value into its staged CSV representation.
// nil renders as an empty field, which COPY loads as NULL with EMPTYASNULL.
func Render(value any) (string, error) {
	switch castValue := value.(type) {
	case nil:
		return "", nil
	case string:
		return castValue, nil
	case bool:
		return strconv.FormatBool(castValue), nil
	case int:
		return strconv.Itoa(castValue), nil
	case int32:
		return strconv.FormatInt(int64(castValue), 10), nil
	case int64:
		return strconv.FormatInt(castValue, 10), nil
	case float32:
		return strconv.FormatFloat(float64(castValue), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(castValue, 'f', -1, 64), nil
	case time.Time:
		return castValue.UTC().Format(time.RFC3339Nano), nil
	case *apd.Decimal:
		return castValue.Text('f'), nil
	case []byte:
		return string(castValue), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}
