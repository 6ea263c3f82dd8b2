package repository

const (
	createKVTableSQL = `
    CREATE TABLE IF NOT EXISTS vinabook_kv (
        name  TEXT PRIMARY KEY,
        value TEXT NOT NULL
    )`

	createOutboxTablePostgresSQL = `
    CREATE TABLE IF NOT EXISTS vinabook_outbox (
        id         BIGSERIAL PRIMARY KEY,
        event_key  TEXT NOT NULL,
        message    TEXT NOT NULL,
        done       BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`

	createOutboxTableSQLiteSQL = `
    CREATE TABLE IF NOT EXISTS vinabook_outbox (
        id         INTEGER PRIMARY KEY AUTOINCREMENT,
        event_key  TEXT NOT NULL,
        message    TEXT NOT NULL,
        done       BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`

	GetValueSQL = "SELECT value FROM vinabook_kv WHERE name = ?"

	UpsertValueSQL = `
    INSERT INTO vinabook_kv (name, value)
    VALUES (?, ?)
    ON CONFLICT (name)
    DO UPDATE SET value = EXCLUDED.value
`

	DeleteValueSQL = "DELETE FROM vinabook_kv WHERE name = ?"

	AddEventSQL = "INSERT INTO vinabook_outbox (event_key, message) VALUES (?, ?)"

	GetPendingEventSQL = `
    SELECT id, event_key, message
    FROM vinabook_outbox
    WHERE done = FALSE
    ORDER BY id
    LIMIT 1
`

	SetEventDoneSQL = "UPDATE vinabook_outbox SET done = TRUE WHERE id = ?"
)
