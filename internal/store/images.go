package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateImage stores processed image bytes and returns the new image ID.
func CreateImage(ctx context.Context, db *sql.DB, data []byte, mime string, uploadedBy int64) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO images (data, mime, uploaded_by) VALUES (?, ?, ?)`,
		data, mime, uploadedBy,
	)
	if err != nil {
		return 0, fmt.Errorf("storing image: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting image id: %w", err)
	}
	return id, nil
}

// GetImage returns an image's data and MIME type. Data is nil if the image
// does not exist.
func GetImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM images WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting image: %w", err)
	}
	return data, mime, nil
}
