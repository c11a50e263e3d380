package memrepo

import (
	"database/sql"
	"time"
)

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Valid: true, Time: t}
}

func nullInt64(n int64) sql.NullInt64 {
	return sql.NullInt64{Valid: true, Int64: n}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{Valid: true, String: s}
}
