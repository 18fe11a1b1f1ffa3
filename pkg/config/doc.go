// Package config loads gvserver configuration from an optional YAML file
// and GVSERVER_* environment variables.
//
// Precedence, lowest first: Default(), the YAML file, the environment.
//
//	application:
//	  port: 8000
//	  jwt_secret: "..."       # at least 32 bytes, or GVSERVER_APPLICATION_JWT_SECRET
//	  token_validity: 168h
//	database:
//	  url: postgres://gv:gv@localhost:5432/gv?sslmode=disable
//	  acquire_timeout: 2s
//	  migrate_on_start: true
//	redis:
//	  url: redis://localhost:6379/0   # optional; enables rate limiting
//	observability:
//	  log_level: info
//
// Durations use Go syntax ("2s", "168h").
package config
