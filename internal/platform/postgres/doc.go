// Package postgres implements the store interfaces against PostgreSQL
// using pgx. Record field maps are stored as JSONB so any host field
// layout round-trips without schema churn.
package postgres
