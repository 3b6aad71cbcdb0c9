package internal

import (
	"chat-relay/infrastructure/storage"

	"github.com/mama165/sdk-go/database"
)

// InspectMapper renders relay entries in the Badger debug inspector.
func InspectMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	record := storage.Inspect(key, val)
	row.Type = record.Kind
	row.Detail = record.Detail
	return row
}
