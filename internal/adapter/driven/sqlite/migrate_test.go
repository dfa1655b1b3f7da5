package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	// setupTestDB already migrated; a second run must be a no-op.
	version, err := RunMigrations(db.Writer)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestRunMigrations_CredentialsSchema(t *testing.T) {
	db := setupTestDB(t)

	rows, err := db.Reader.Query(`SELECT name FROM pragma_table_info('credentials') ORDER BY cid`)
	require.NoError(t, err)
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		columns = append(columns, name)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []string{"id", "service_name", "username", "encrypted_secret", "nonce", "created_at"}, columns)
}

func TestRunMigrations_RejectsEmptyServiceName(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.Writer.Exec(`INSERT INTO credentials (service_name, username, encrypted_secret, nonce) VALUES ('', 'u', x'01', x'02')`)
	require.Error(t, err)
}
