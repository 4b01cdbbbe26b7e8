package postgres

import (
	"context"
	_ "embed"

	"coinwhisperer/pkg/errors"
)

//go:embed schema.sql
var schema string

// Migrate applies the schema. All statements are idempotent so running it
// on every startup is safe.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}
