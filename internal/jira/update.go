package jira

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// FieldShapes returns the payload shapes tried when setting a custom field:
// the raw value, an option object, and a single-option array.
func FieldShapes(value string) []any {
	return []any{
		value,
		map[string]any{"value": value},
		[]any{map[string]any{"value": value}},
	}
}

// SetField writes value into fieldID, trying each payload shape until Jira accepts one.
// It returns the accepted shape.
func SetField(ctx context.Context, c Client, key, fieldID, value string) (any, error) {
	var errs []error
	for _, shape := range FieldShapes(value) {
		err := c.UpdateIssueField(ctx, key, fieldID, shape)
		if err == nil {
			log.Info().Str("issue", key).Str("field", fieldID).Interface("shape", shape).Msg("Field updated")
			return shape, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Debug().Err(err).Str("issue", key).Interface("shape", shape).Msg("Field shape rejected")
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("could not update field %s on %s: %w", fieldID, key, errors.Join(errs...))
}
