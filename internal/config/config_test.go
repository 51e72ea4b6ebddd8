package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestParse(t *testing.T) {
	type test struct {
		name    string
		args    []string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, cfg Config)
	}
	tests := []test{
		{
			name: "env fills defaults",
			env: map[string]string{
				"PORT":                "8080",
				"DB_USER":             "user",
				"DB_PASSWORD":         "p@ss",
				"ACCESS_TOKEN_SECRET": "s",
				"APP_ENV":             "production",
				"CORS_ORIGINS":        "https://a.app, https://b.app",
			},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, ":8080", cfg.Addr)
				assert.Equal(t, StorageMongo, cfg.Storage)
				assert.Equal(t, "mongodb+srv://user:p%40ss@"+defaultMongoHost+"/?retryWrites=true&w=majority&appName=Study-Shelf", cfg.MongoURI)
				assert.True(t, cfg.Production)
				assert.Equal(t, []string{"https://a.app", "https://b.app"}, cfg.CORSOrigins)
			},
		},
		{
			name: "flags win over env",
			args: []string{"-addr", ":9000", "-storage", "memory", "-debug"},
			env:  map[string]string{"PORT": "8080", "STORAGE_DRIVER": "postgres", "ACCESS_TOKEN_SECRET": "s"},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, ":9000", cfg.Addr)
				assert.Equal(t, StorageMemory, cfg.Storage)
				assert.True(t, cfg.DebugFlag)
				assert.False(t, cfg.Production)
				assert.Equal(t, []string{defaultCORS}, cfg.CORSOrigins)
			},
		},
		{
			name: "postgres from env",
			env:  map[string]string{"STORAGE_DRIVER": "postgres", "DB_DSN": "postgres://localhost/db", "ACCESS_TOKEN_SECRET": "s"},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, StoragePostgres, cfg.Storage)
				assert.Equal(t, "postgres://localhost/db", cfg.DBAddr)
			},
		},
		{
			name:    "missing secret",
			args:    []string{"-storage", "memory"},
			wantErr: true,
		},
		{
			name:    "postgres without dsn",
			env:     map[string]string{"STORAGE_DRIVER": "postgres", "ACCESS_TOKEN_SECRET": "s"},
			wantErr: true,
		},
		{
			name:    "unknown storage",
			args:    []string{"-storage", "redis"},
			env:     map[string]string{"ACCESS_TOKEN_SECRET": "s"},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			cfg, err := parse(fs, tc.args, env(tc.env))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}
