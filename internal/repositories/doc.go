// Package repositories implements SQLite persistence for the token cache.
//
// Key Implementations:
//   - [TokenRepository] : the oauth_tokens table, holding at most one row
//
// The schema comes from the migrations embedded in the shared package; open the database with
// [shared.NewDatabase] and apply [shared.RunMigrations] before use.
package repositories
