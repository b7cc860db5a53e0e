// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Tests using it carry the integration build tag and are skipped unless
// RECALL_TEST_DATABASE_URL (or DATABASE_URL) points at a disposable database:
//
//	//go:build integration
//
//	func TestSomething(t *testing.T) {
//		db := testdb.GetTestDB(t)
//		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//			...
//		})
//	}
//
// GetTestDB applies the embedded migrations once per process, so the schema
// always matches what the server runs.
package testdb
