package database

import (
	"context"
	"database/sql"
	"fmt"

	"satbridge/internal/models"
)

// MaxMessageID returns the highest message id in the log, or 0 on an empty
// table. Used to initialize the tailer cursor.
func (d *Database) MaxMessageID(ctx context.Context) (int64, error) {
	var maxID int64
	err := d.db.QueryRowContext(ctx, `SELECT IFNULL(MAX(id), 0) FROM message`).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("failed to query max message id: %w", err)
	}
	return maxID, nil
}

// MessagesAfter returns up to limit messages with id greater than cursor, in
// ascending id order.
func (d *Database) MessagesAfter(ctx context.Context, cursor int64, limit int) ([]models.Message, error) {
	query := `
		SELECT m.id, COALESCE(m.text, ''), m.message_thread_id, m.sent_time,
		       m.media_attachment_id, m.latitude, m.longitude, m.altitude
		FROM message m
		WHERE m.id > ?
		ORDER BY m.id ASC
		LIMIT ?
	`
	rows, err := d.db.QueryContext(ctx, query, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages after %d: %w", cursor, err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// RecentMessages returns the most recent n messages in ascending id order.
// Used for the boot replay; it does not touch the cursor.
func (d *Database) RecentMessages(ctx context.Context, n int) ([]models.Message, error) {
	query := `
		SELECT m.id, COALESCE(m.text, ''), m.message_thread_id, m.sent_time,
		       m.media_attachment_id, m.latitude, m.longitude, m.altitude
		FROM message m
		ORDER BY m.id DESC
		LIMIT ?
	`
	rows, err := d.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	// Reverse into ascending order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ThreadAddress returns the sender address (msisdn) for a thread, or "" when
// the thread is unknown.
func (d *Database) ThreadAddress(ctx context.Context, threadID int64) (string, error) {
	var addresses sql.NullString
	err := d.db.QueryRowContext(ctx,
		`SELECT addresses FROM message_thread WHERE id = ?`, threadID).Scan(&addresses)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up thread %d: %w", threadID, err)
	}
	return addresses.String, nil
}

// AttachmentFile returns the media type and file id for an attachment. When
// several file records exist the largest one wins. The file id may be empty
// while the app has not yet populated the file record.
func (d *Database) AttachmentFile(ctx context.Context, attachmentID string) (models.AttachmentFile, error) {
	query := `
		SELECT mr.media_type, COALESCE(mf.file_id, '')
		FROM media_attachment_record mr
		LEFT JOIN media_attachment_file mf ON mf.attachment_id = mr.attachment_id
		WHERE mr.attachment_id = ?
		ORDER BY IFNULL(mf.fileSize, 0) DESC
		LIMIT 1
	`
	var af models.AttachmentFile
	err := d.db.QueryRowContext(ctx, query, attachmentID).Scan(&af.MediaType, &af.FileID)
	if err == sql.ErrNoRows {
		return models.AttachmentFile{}, nil
	}
	if err != nil {
		return models.AttachmentFile{}, fmt.Errorf("failed to look up attachment %s: %w", attachmentID, err)
	}
	return af, nil
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		var attachID sql.NullString
		var lat, lon, alt sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.Text, &m.ThreadID, &m.SentTime, &attachID, &lat, &lon, &alt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		if attachID.Valid && attachID.String != "" {
			m.MediaAttachmentID = &attachID.String
		}
		if lat.Valid {
			m.Latitude = &lat.Float64
		}
		if lon.Valid {
			m.Longitude = &lon.Float64
		}
		if alt.Valid {
			m.Altitude = &alt.Float64
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return msgs, nil
}
