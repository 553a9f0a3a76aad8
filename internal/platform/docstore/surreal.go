package docstore

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
)

type SurrealOptions struct {
	URL       string
	User      string
	Password  string
	Namespace string
	Database  string
}

// ConnectSurreal opens a SurrealDB connection, signs in and selects the
// namespace and database.
func ConnectSurreal(ctx context.Context, opts SurrealOptions) (*surrealdb.DB, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, opts.URL)
	if err != nil {
		return nil, fmt.Errorf("connect surrealdb: %w", err)
	}
	if opts.User != "" {
		if _, err := db.SignIn(ctx, &surrealdb.Auth{Username: opts.User, Password: opts.Password}); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("surrealdb signin: %w", err)
		}
	}
	if err := db.Use(ctx, opts.Namespace, opts.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("surrealdb use %s/%s: %w", opts.Namespace, opts.Database, err)
	}
	if _, err := db.Version(ctx); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("ping surrealdb: %w", err)
	}
	return db, nil
}
