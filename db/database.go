package db

import (
	"database/sql"
	"fmt"
	"log"

	"tunedrop/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createSubmissionsTable(); err != nil {
		return err
	}
	if err := createTracksTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		display_name VARCHAR(100) NOT NULL,
		phone VARCHAR(20),
		role ENUM('artist', 'admin') NOT NULL,
		status ENUM('active', 'inactive') NOT NULL DEFAULT 'active',
		artist_name VARCHAR(100),
		bio TEXT,
		social_media TEXT,
		permissions TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		last_login TIMESTAMP NULL DEFAULT NULL
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func createSubmissionsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS submissions (
		id VARCHAR(36) PRIMARY KEY,
		artist_id BIGINT NOT NULL,
		artist_name VARCHAR(100) NOT NULL,
		artist_email VARCHAR(255) NOT NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		status ENUM('pending', 'in-review', 'approved', 'rejected') NOT NULL DEFAULT 'pending',
		total_tracks INT NOT NULL DEFAULT 0,
		review_score INT NULL,
		review_notes TEXT,
		admin_notes TEXT,
		reviewed_by BIGINT NULL,
		email_sent BOOLEAN NOT NULL DEFAULT FALSE,
		email_sent_at TIMESTAMP NULL DEFAULT NULL,
		email_message_id VARCHAR(255),
		email_method VARCHAR(16),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_submissions_artist (artist_id),
		INDEX idx_submissions_status (status)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create submissions table: %w", err)
	}
	return nil
}

// Tracks get their own table rather than an embedded list on the submission
// row, so concurrent uploads are plain inserts instead of racing
// read-modify-writes on one document.
func createTracksTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		id VARCHAR(40) NOT NULL,
		submission_id VARCHAR(36) NOT NULL,
		title VARCHAR(255) NOT NULL,
		genre VARCHAR(100) NOT NULL,
		bpm INT NULL,
		track_key VARCHAR(20),
		description TEXT,
		filename VARCHAR(255) NOT NULL,
		storage_path VARCHAR(512) NOT NULL,
		download_url VARCHAR(512) NOT NULL,
		file_size BIGINT NOT NULL,
		mime_type VARCHAR(100),
		uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (submission_id, id),
		INDEX idx_tracks_submission (submission_id)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create tracks table: %w", err)
	}
	return nil
}
