package sqlite

import (
	"database/sql"
	"encoding/json"

	"github.com/memopack/memopack-go/pkg/memory"
)

// scanRecord scans one records row, decoding the JSON-encoded fields.
func scanRecord(rows *sql.Rows) (*memory.Record, error) {
	var (
		rec                       memory.Record
		scope, confidence, status string
		tagsJSON, supersedesJSON  string
		relatedJSON, embedJSON    string
		lastUsed, expires         sql.NullTime
	)

	err := rows.Scan(
		&rec.ID, &rec.Path, &rec.Directory, &rec.Title, &rec.Body,
		&rec.TokenCount, &scope, &rec.Priority, &confidence, &status,
		&tagsJSON, &rec.Created, &lastUsed, &rec.UsageCount,
		&expires, &supersedesJSON, &relatedJSON, &embedJSON,
	)
	if err != nil {
		return nil, err
	}

	rec.Scope = memory.Scope(scope)
	rec.Confidence = memory.Confidence(confidence)
	rec.Status = memory.Status(status)
	if lastUsed.Valid {
		t := lastUsed.Time
		rec.LastUsed = &t
	}
	if expires.Valid {
		t := expires.Time
		rec.Expires = &t
	}

	if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(supersedesJSON), &rec.Supersedes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(relatedJSON), &rec.Related); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(embedJSON), &rec.Embedding); err != nil {
		return nil, err
	}

	return &rec, nil
}

// scanDirectory scans one directories row.
func scanDirectory(rows *sql.Rows) (*memory.DirectoryAggregate, error) {
	var (
		dir       memory.DirectoryAggregate
		embedJSON string
	)

	if err := rows.Scan(&dir.Path, &embedJSON, &dir.RecordCount); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(embedJSON), &dir.Embedding); err != nil {
		return nil, err
	}

	return &dir, nil
}

// encodeRecordFields JSON-encodes the slice-valued record fields.
func encodeRecordFields(rec *memory.Record) (tags, supersedes, related, embedding string, err error) {
	tagsBytes, err := json.Marshal(orEmpty(rec.Tags))
	if err != nil {
		return "", "", "", "", err
	}
	supersedesBytes, err := json.Marshal(orEmpty(rec.Supersedes))
	if err != nil {
		return "", "", "", "", err
	}
	relatedBytes, err := json.Marshal(orEmpty(rec.Related))
	if err != nil {
		return "", "", "", "", err
	}
	embedding, err = encodeEmbedding(rec.Embedding)
	if err != nil {
		return "", "", "", "", err
	}
	return string(tagsBytes), string(supersedesBytes), string(relatedBytes), embedding, nil
}

// encodeEmbedding JSON-encodes an embedding vector.
func encodeEmbedding(embedding []float64) (string, error) {
	data, err := json.Marshal(embedding)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// orEmpty keeps nil slices from encoding as JSON null.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
