package command

import (
	"fmt"
	"os"
	"path/filepath"
)

func init() {
	cmdScaffold.Run = runScaffold // break init cycle
}

var cmdScaffold = &Command{
	UsageLine: "scaffold -config=sequence",
	Short:     "generate basic configuration files",
	Long: `Generate sequence.toml with all possible configurations for you to customize.

  The options can also be overwritten by environment variables.
  For example, the sequence.toml mysql password can be overwritten by environment variable
    export AUTOINC_MYSQL_PASSWORD=some_password

  `,
}

var (
	outputPath = cmdScaffold.Flag.String("output", "", "if not empty, save the configuration file to this directory")
	config     = cmdScaffold.Flag.String("config", "sequence", "[sequence] the configuration file to generate")
)

func runScaffold(cmd *Command, args []string) bool {

	content := ""
	switch *config {
	case "sequence":
		content = SEQUENCE_TOML_EXAMPLE
	}
	if content == "" {
		println("need a valid -config option")
		return false
	}

	if *outputPath != "" {
		if err := os.WriteFile(filepath.Join(*outputPath, *config+".toml"), []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s.toml: %v\n", *config, err)
			return false
		}
	} else {
		fmt.Println(content)
	}
	return true
}

const (
	SEQUENCE_TOML_EXAMPLE = `
# A sample TOML config file for autoinc sequences
# Used with "autoinc next", "autoinc peek" and "autoinc benchmark"
# Put this file to one of the location, with descending priority
#    ./sequence.toml
#    $HOME/.autoinc/sequence.toml
#    /usr/local/etc/autoinc/sequence.toml
#    /etc/autoinc/sequence.toml

[sequence]
# all sequences keep their records in this collection or table
collection = "Autoincrement"
# attempts per allocation before giving up
max_attempts = 100
# wait between attempts, growing exponentially with jitter; 0 retries immediately
backoff_initial_ms = 0
backoff_max_ms = 0
# wait for each insert to reach stable storage
durable = true

####################################################
# exactly one store below should be enabled
####################################################

[memory]
# local in memory, mostly for testing purpose
enabled = false

[leveldb]
# local on disk, for a single process
enabled = false
dir = "./sequence_leveldb"

[sqlite]
# local on disk, processes on the same machine can share the file
enabled = false
dbFile = "./sequence.db"

[mongodb]
# durable inserts use write concern majority with journal
enabled = true
uri = "mongodb://localhost:27017"
database = "autoinc"
option_pool_size = 0

[mysql]
# CREATE TABLE IF NOT EXISTS Autoincrement (
#   id    VARCHAR(36) NOT NULL PRIMARY KEY,
#   coll  VARCHAR(255) NOT NULL,
#   val   BIGINT NOT NULL,
#   UNIQUE KEY coll_val (coll, val)
# ) DEFAULT CHARSET=utf8mb4;
enabled = false
hostname = "localhost"
port = 3306
username = "root"
password = ""
database = ""              # create or use an existing database
connection_max_idle = 2
connection_max_open = 100
connection_max_lifetime_seconds = 0

[postgres]
# CREATE TABLE IF NOT EXISTS "Autoincrement" (
#   id    VARCHAR(36) PRIMARY KEY,
#   coll  VARCHAR(255) NOT NULL,
#   val   BIGINT NOT NULL,
#   UNIQUE (coll, val)
# );
enabled = false
driver = "pgx"             # or "postgres" for lib/pq
hostname = "localhost"
port = 5432
username = "postgres"
password = ""
database = "postgres"      # create or use an existing database
schema = ""
sslmode = "disable"
connection_max_idle = 100
connection_max_open = 100
connection_max_lifetime_seconds = 0

[cassandra]
# CREATE TABLE IF NOT EXISTS "Autoincrement" (
#    name text,
#    val bigint,
#    PRIMARY KEY ((name), val)
# ) WITH CLUSTERING ORDER BY (val DESC);
enabled = false
keyspace = "autoinc"
hosts = [
	"localhost:9042",
]
username = ""
password = ""
# Set the name of the local datacenter for token aware host selection
localDC = ""
connection_timeout_millisecond = 600

[redis]
# one address for a single server, several for a cluster
enabled = false
addresses = [
    "localhost:6379",
]
password = ""
database = 0
keyPrefix = "autoinc:"
# wait for the append only file to be fsynced, needs redis 7.2 and appendonly yes.
# startup fails if the server does not support it.
waitAof = false
waitAofTimeoutMs = 1000

[etcd]
enabled = false
servers = "localhost:2379"
username = ""
password = ""
key_prefix = "autoinc."
timeout = "3s"
tls_ca_file = ""
tls_client_crt_file = ""
tls_client_key_file = ""

`
)
