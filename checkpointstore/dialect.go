package checkpointstore

// createTableDDL, upsertDML and selectLatestDML hold the one
// dialect-specific difference between backends: placeholder syntax and
// upsert clause, the way the teacher's driver/{mysql,postgres}.go pair
// hold the one difference (DSN building and SHOW/information_schema
// queries) between otherwise-identical Database methods.

func createTableDDL(driverKind string) string {
	switch driverKind {
	case "mysql":
		return `CREATE TABLE IF NOT EXISTS checkpoints (
			page_id VARCHAR(255) NOT NULL,
			rev_id INT NOT NULL,
			blob LONGBLOB NOT NULL,
			last_content LONGTEXT NOT NULL,
			PRIMARY KEY (page_id, rev_id)
		)`
	case "mssql":
		return `IF NOT EXISTS (SELECT * FROM sys.tables WHERE name = 'checkpoints')
			CREATE TABLE checkpoints (
				page_id VARCHAR(255) NOT NULL,
				rev_id INT NOT NULL,
				blob VARBINARY(MAX) NOT NULL,
				last_content NVARCHAR(MAX) NOT NULL,
				PRIMARY KEY (page_id, rev_id)
			)`
	default: // postgres, sqlite
		return `CREATE TABLE IF NOT EXISTS checkpoints (
			page_id TEXT NOT NULL,
			rev_id INTEGER NOT NULL,
			blob BLOB NOT NULL,
			last_content TEXT NOT NULL,
			PRIMARY KEY (page_id, rev_id)
		)`
	}
}

func upsertDML(driverKind string) string {
	switch driverKind {
	case "mysql":
		return `INSERT INTO checkpoints (page_id, rev_id, blob, last_content) VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE blob = VALUES(blob), last_content = VALUES(last_content)`
	case "postgres":
		return `INSERT INTO checkpoints (page_id, rev_id, blob, last_content) VALUES ($1, $2, $3, $4)
			ON CONFLICT (page_id, rev_id) DO UPDATE SET blob = EXCLUDED.blob, last_content = EXCLUDED.last_content`
	case "mssql":
		return `MERGE checkpoints AS target
			USING (SELECT @p1 AS page_id, @p2 AS rev_id, @p3 AS blob, @p4 AS last_content) AS source
			ON target.page_id = source.page_id AND target.rev_id = source.rev_id
			WHEN MATCHED THEN UPDATE SET blob = source.blob, last_content = source.last_content
			WHEN NOT MATCHED THEN INSERT (page_id, rev_id, blob, last_content) VALUES (source.page_id, source.rev_id, source.blob, source.last_content);`
	default: // sqlite
		return `INSERT INTO checkpoints (page_id, rev_id, blob, last_content) VALUES (?, ?, ?, ?)
			ON CONFLICT (page_id, rev_id) DO UPDATE SET blob = excluded.blob, last_content = excluded.last_content`
	}
}

func selectLatestDML(driverKind string) string {
	switch driverKind {
	case "postgres":
		return `SELECT rev_id, blob, last_content FROM checkpoints WHERE page_id = $1 ORDER BY rev_id DESC LIMIT 1`
	case "mssql":
		return `SELECT TOP 1 rev_id, blob, last_content FROM checkpoints WHERE page_id = @p1 ORDER BY rev_id DESC`
	default: // mysql, sqlite
		return `SELECT rev_id, blob, last_content FROM checkpoints WHERE page_id = ? ORDER BY rev_id DESC LIMIT 1`
	}
}
