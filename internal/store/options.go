package store

import "database/sql"

// Options carries backend-specific settings for Open.
type Options struct {
	DB          *sql.DB // sqlite
	Dir         string  // file
	RedisAddr   string  // redis
	RedisPrefix string  // redis key prefix, defaults to "cardmatch:save:"
}
