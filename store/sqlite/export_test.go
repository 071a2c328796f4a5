package sqlite

import "database/sql"

// DB exposes the handle so tests can write rows the Store API never would.
func (s *Store) DB() *sql.DB { return s.db }
