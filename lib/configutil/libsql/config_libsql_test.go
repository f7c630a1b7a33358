package configlibsql

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchema = `create table if not exists item (
	id integer primary key,
	name text not null
);`

func TestOpenDB(t *testing.T) {
	cases := []struct {
		name   string
		config Struct
	}{
		{name: "memory", config: Struct{File: ":memory:"}},
		{name: "file", config: Struct{File: filepath.Join(t.TempDir(), "nested", "test.db")}},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			db, err := test.config.OpenDB(testSchema)
			require.NoError(t, err)
			defer db.Close()

			_, err = db.Exec("insert into item(name) values (?)", "a")
			require.NoError(t, err)

			var count int
			err = db.QueryRow("select count(*) from item").Scan(&count)
			require.NoError(t, err)
			require.Equal(t, 1, count)
		})
	}
}

func TestOpenDBReapplySchema(t *testing.T) {
	config := Struct{File: filepath.Join(t.TempDir(), "test.db")}

	db, err := config.OpenDB(testSchema)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = config.OpenDB(testSchema)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestOpenDBUnspecified(t *testing.T) {
	_, err := Struct{}.OpenDB(testSchema)
	require.Error(t, err)
}

func TestDriversRegistered(t *testing.T) {
	drivers := sql.Drivers()
	require.Contains(t, drivers, "sqlite")
	require.Contains(t, drivers, "libsql")
}
