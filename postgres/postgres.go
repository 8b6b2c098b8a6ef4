package postgres

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/peterbourgon/ff"
)

type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	DatabaseName string
}

// connect to Postgres and return a database handle representing a pool of connections
func Connect(config *Config) (*sqlx.DB, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable",
		config.Host,
		config.Port,
		config.User,
		config.DatabaseName,
	)
	if config.Password != "" {
		psqlInfo += " password=" + config.Password
	}

	db, err := sqlx.Connect("postgres", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %v", err)
	}

	err = setup(db)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Parse the flags in the flag set from the command line.
// Additional options may be provided to parse from environment variables, but flags get priority.
//
// Example .env file
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=alice
//	POSTGRES_DB_NAME=ledger_dev
func Parse() (*Config, error) {
	var err error

	postgresFlags := flag.NewFlagSet("postgres", flag.ContinueOnError)
	var (
		host     = postgresFlags.String("host", "localhost", "host to connect to")
		port     = postgresFlags.Int("port", 5432, "port to bind to")
		user     = postgresFlags.String("user", "", "user to sign in as")
		password = postgresFlags.String("password", "", "password to sign in with")
		dbName   = postgresFlags.String("db_name", "", "name of the database")
	)

	err = ff.Parse(postgresFlags, definedArgs(postgresFlags, os.Args[1:]),
		ff.WithIgnoreUndefined(true),
		ff.WithEnvVarPrefix("POSTGRES"),
	)
	if err != nil {
		return nil, err
	}

	return &Config{
		Host:         *host,
		Port:         *port,
		User:         *user,
		Password:     *password,
		DatabaseName: *dbName,
	}, nil
}

// definedArgs keeps only the arguments whose flag is defined in fs.
// The flag set shares os.Args with the engine's flags and the test binary's
// -test.* flags, and an unknown command-line flag would abort parsing;
// ff's WithIgnoreUndefined covers config files and env only. Every flag in
// fs takes a value, so a detached value token is consumed with its flag.
func definedArgs(fs *flag.FlagSet, args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if j := strings.Index(name, "="); j >= 0 {
			name = name[:j]
		}
		if fs.Lookup(name) == nil {
			continue
		}
		out = append(out, arg)
		if !strings.Contains(arg, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// configures the database settings
func setup(db *sqlx.DB) error {
	// install extension for creating UUIDs
	_, err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"")
	if err != nil {
		return fmt.Errorf("adding UUID extension: %v", err)
	}

	// set default timezone to UTC
	_, err = db.Exec("SET timezone to 'UTC'")
	if err != nil {
		return fmt.Errorf("setting database default timezone: %v", err)
	}

	err = createTables(db)
	if err != nil {
		return fmt.Errorf("creating db tables: %v", err)
	}

	return nil
}
