// Package sqlxrepos implements the core repositories on top of sqlx, for both postgres and sqlite.
// Queries are written with `?` placeholders and rebound to the driver's bindvar type.
package sqlxrepos

import (
	"encoding/json"

	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
)

// jsonColumn encodes `v` for a TEXT column holding JSON.
func jsonColumn(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "encoding json column")
	}
	return string(data), nil
}

// scanJSON decodes a JSON column into `dest`. Empty columns leave `dest` untouched.
func scanJSON(col types.JSONText, dest interface{}) error {
	if len(col) == 0 {
		return nil
	}
	if err := col.Unmarshal(dest); err != nil {
		return errors.Wrap(err, "decoding json column")
	}
	return nil
}
