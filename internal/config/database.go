// internal/config/database.go
package config

import "fmt"

// DSN builds the postgres connection string for gorm. Sessions run in UTC so
// order timestamps and the dashboard's month boundaries agree regardless of
// where the server runs.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}
