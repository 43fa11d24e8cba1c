package nlgeval

import (
	"fmt"
	"strings"

	"github.com/datar-psa/nlgeval/api"
)

var (
	// ErrNoExpectedValue is returned when an expected value is required but not provided
	ErrNoExpectedValue = api.ErrNoExpectedValue
	// ErrLengthMismatch is returned when references and predictions differ in length
	ErrLengthMismatch = api.ErrLengthMismatch
	// ErrUnknownMetric matches every UnknownMetricError
	ErrUnknownMetric = api.ErrUnknownMetric
	// ErrNoEmbedder is returned when an embedding metric is built without an embedder provider
	ErrNoEmbedder = api.ErrNoEmbedder
)

// UnknownMetricError reports a metric name outside the adapter's catalogue
type UnknownMetricError struct {
	Name     string
	Expected []string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("unknown metric %s, expected one of %s", e.Name, strings.Join(e.Expected, ", "))
}

// Is makes errors.Is(err, ErrUnknownMetric) true
func (e *UnknownMetricError) Is(target error) bool {
	return target == ErrUnknownMetric
}
