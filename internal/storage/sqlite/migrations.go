package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    upn TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS receipts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    payer INTEGER NOT NULL,
    payee INTEGER NOT NULL,
    num_meals INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (payer) REFERENCES users(id),
    FOREIGN KEY (payee) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_receipts_payer ON receipts(payer);
CREATE INDEX IF NOT EXISTS idx_receipts_payee ON receipts(payee);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
