package mysql

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore/store_test"
)

func TestIsDuplicateKey(t *testing.T) {
	gen := &SqlGenMysql{}
	assert.True(t, gen.IsDuplicateKey(&mysql.MySQLError{Number: 1062}))
	assert.True(t, gen.IsDuplicateKey(fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, gen.IsDuplicateKey(&mysql.MySQLError{Number: 1213}))
	assert.False(t, gen.IsDuplicateKey(errors.New("Duplicate entry")))
}

func TestStore(t *testing.T) {
	// export MYSQL_HOST=localhost to run against a local server
	host := os.Getenv("MYSQL_HOST")
	if host == "" {
		t.Skip("MYSQL_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("MYSQL_PORT"))
	if port == 0 {
		port = 3306
	}
	store := &MysqlStore{}
	require.Nil(t, store.initialize(os.Getenv("MYSQL_USER"), os.Getenv("MYSQL_PASSWORD"), host, port,
		os.Getenv("MYSQL_DATABASE"), 2, 10, 0))
	defer store.Shutdown()

	store_test.TestSequenceStore(t, store)
}
