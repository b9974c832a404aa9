package enricher

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Schema describes the object a generation must produce. Struct tags on T
// are enforced by the validator; Check adds rules tags cannot express.
type Schema[T any] struct {
	Name  string
	Check func(*T) error
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Fingerprint is the cache key of a request: SHA-256 over the messages,
// provider, model and temperature.
func Fingerprint(messages []Message, provider, model string, temperature float64) string {
	h := sha256.New()
	msgs, _ := json.Marshal(messages)
	h.Write(msgs)
	h.Write([]byte{0})
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(temperature, 'f', -1, 64)))
	return hex.EncodeToString(h.Sum(nil))
}

// extractJSON returns the outermost JSON object in text, tolerating code
// fences and prose around it.
func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return strings.TrimSpace(text)
	}
	return text[start : end+1]
}
