// Package metrics exposes Prometheus collectors for the indexer components.
package metrics

const (
	namespace = "hiveindexer"

	statusSuccess = "success"
	statusError   = "error"
)

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusSuccess
}
