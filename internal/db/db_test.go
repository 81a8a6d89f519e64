package db

import (
	"strings"
	"testing"

	"github.com/shinyyama/messages-backend/internal/config"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"plain host", "db.internal", "tcp(db.internal:3306)"},
		{"tcp already wrapped", "tcp(db.internal:3307)", "tcp(db.internal:3307)"},
		{"unix already wrapped", "unix(/tmp/mysql.sock)", "unix(/tmp/mysql.sock)"},
		{"bare socket path", "/var/run/mysqld/mysqld.sock", "unix(/var/run/mysqld/mysqld.sock)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				DBUser:     "forum",
				DBPassword: "secret",
				DBHost:     tt.host,
				DBName:     "forum_messages",
				DBPort:     "3306",
			}
			dsn := BuildDSN(cfg)
			if !strings.Contains(dsn, tt.want) {
				t.Errorf("DSN = %q, want address %q", dsn, tt.want)
			}
			if !strings.HasPrefix(dsn, "forum:secret@") {
				t.Errorf("DSN = %q, want credentials prefix", dsn)
			}
			if !strings.Contains(dsn, "/forum_messages?") {
				t.Errorf("DSN = %q, want database name", dsn)
			}
			if !strings.Contains(dsn, "parseTime=True") {
				t.Errorf("DSN = %q, want parseTime=True", dsn)
			}
		})
	}
}
