package usecase

import (
	"encoding/json"
	"errors"
	"fmt"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
)

// assetMetadataSchema constrains edit payloads to the free-text fields.
// Status and holder are only reachable through the transition operations.
const assetMetadataSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": false,
	"minProperties": 1,
	"properties": {
		"category": {"type": "string", "maxLength": 200},
		"description": {"type": "string", "maxLength": 2000}
	}
}`

var metadataSchema = santhosh.MustCompileString("asset_metadata.json", assetMetadataSchema)

// validateMetadataPatch checks an edit payload against the embedded schema.
// Returns *domain.ErrFieldViolation on failure.
func validateMetadataPatch(fields json.RawMessage) error {
	var v any
	if err := json.Unmarshal(fields, &v); err != nil {
		return fmt.Errorf("edit metadata: %v: %w", err, ErrInvalidArgument)
	}
	if err := metadataSchema.Validate(v); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return &domain.ErrFieldViolation{Errors: collectCauses(ve)}
		}
		return &domain.ErrFieldViolation{Errors: []string{err.Error()}}
	}
	return nil
}

func collectCauses(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectCauses(cause)...)
	}
	if len(ve.Causes) == 0 {
		msgs = append(msgs, ve.Error())
	}
	return msgs
}
