// Package jhp is a database facade over a native SQLite module that only
// speaks JSON-safe values. Binary data crosses the boundary as blob
// descriptors ({"data": base64, "length": n}); see the blob and codec
// packages for building and reading them.
//
// Components:
//   - native.Registry: the loaded native functions. native/sqlite provides
//     the SQLite engine.
//   - Database: Exec, Query, Pragma, Changes, LastInsertRowID, Transaction
//     and Close over one native connection handle.
//   - Relay: a thin forwarder to the sqlx_* relay functions.
//   - Optional query-result cache: a provider.Provider byte store plus a
//     genstore.GenStore generation per namespace. Every write through the
//     Database bumps the generation, so a cached result is served only if no
//     write happened since it was stored.
//
// Keys:
//
//	query:<ns>:<hash>  - cached query results (hash over sql, params, limit)
//
// Usage:
//
//	reg := native.NewRegistry(native.Options{})
//	_ = reg.Load(sqlite.New().Module())
//	db, err := jhp.Open(ctx, "app.db", jhp.Options{Native: reg})
//	...
//	err = db.Transaction(ctx, func(tx *jhp.Database) error {
//		_, err := tx.Exec(ctx, "INSERT INTO files (body) VALUES (?)", []any{payload})
//		return err
//	})
package jhp
