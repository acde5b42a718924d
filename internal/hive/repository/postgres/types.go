package postgres

import "time"

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Metrics records repository operations.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)
