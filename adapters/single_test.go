package adapters

import (
	"context"
	"database/sql"
	"testing"

	"github.com/TeraWattHour/go-authstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createUsers(t *testing.T, a authstore.Adapter, emails ...string) {
	for _, email := range emails {
		_, err := a.CreateUser(context.Background(), authstore.User{Email: email})
		require.NoError(t, err)
	}
}

func TestAssertSingleRejectsSeveralRows(t *testing.T) {
	g := openGormSQLite(t).(*GormAdapter)
	createUsers(t, g, "a@example.com", "b@example.com")

	_, err := assertSingle[userModel](g.db.Select(userColumns).Where("email LIKE ?", "%@example.com"))
	assert.ErrorIs(t, err, authstore.ErrNotSingle)

	row, err := assertSingle[userModel](g.db.Select(userColumns).Where("email = ?", "a@example.com"))
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "a@example.com", row.Email)
}

func TestQuerySingleRejectsSeveralRows(t *testing.T) {
	a := openSQLite(t).(*SQLAdapter)
	createUsers(t, a, "a@example.com", "b@example.com")
	ctx := context.Background()

	var id string
	scan := func(rows *sql.Rows) error { return rows.Scan(&id) }

	_, err := a.querySingle(ctx, a.db, scan, "SELECT u.id FROM users u")
	assert.ErrorIs(t, err, authstore.ErrNotSingle)

	found, err := a.querySingle(ctx, a.db, scan, "SELECT u.id FROM users u WHERE u.email = ?", "b@example.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotEmpty(t, id)
}
