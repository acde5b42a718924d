package transport

import (
	hivesync "github.com/goodnatureofminers/hiveindexer-backend/internal/hive/sync"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// StatusSource reports the sync driver progress.
	StatusSource interface {
		Status() hivesync.Status
	}
)
