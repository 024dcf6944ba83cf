package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func assetHandlers() repository.ModelHandlers[*assetRecord] {
	return repository.ModelHandlers[*assetRecord]{
		NewRecord: func() *assetRecord {
			return &assetRecord{}
		},
		GetID: func(record *assetRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *assetRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "asset_id"
		},
		GetIdentifierValue: func(record *assetRecord) string {
			if record == nil {
				return ""
			}
			return record.AssetID
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
