package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the database schema for the scheduling service
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	// Create extension for UUID generation
	if err := db.createExtensions(ctx); err != nil {
		return fmt.Errorf("failed to create extensions: %w", err)
	}

	// Create tables
	tables := []string{
		createUsersTable,
		createDoctorsTable,
		createAppointmentsTable,
		createTrackedBookersTable,
		createNotificationsTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Create indexes
	indexes := []string{
		createUsersIndexes,
		createDoctorsIndexes,
		createAppointmentsIndexes,
		createTrackedBookersIndexes,
		createNotificationsIndexes,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

// createExtensions creates required PostgreSQL extensions
func (db *DB) createExtensions(ctx context.Context) error {
	extensions := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, ext := range extensions {
		if _, err := db.ExecContext(ctx, ext); err != nil {
			return fmt.Errorf("failed to create extension: %w", err)
		}
	}

	return nil
}

// SQL DDL statements for table creation
const (
	createUsersTable = `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			first_name VARCHAR(200) NOT NULL,
			phone VARCHAR(20) UNIQUE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createDoctorsTable = `
		CREATE TABLE IF NOT EXISTS doctors (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name VARCHAR(200) NOT NULL,
			specialty VARCHAR(100),
			phone VARCHAR(20) UNIQUE,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			work_times JSONB NOT NULL DEFAULT '[]',
			vacation_days JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createAppointmentsTable = `
		CREATE TABLE IF NOT EXISTS appointments (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID,
			doctor_id UUID NOT NULL REFERENCES doctors(id),
			user_name VARCHAR(200) NOT NULL DEFAULT '',
			doctor_name VARCHAR(200) NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL DEFAULT 30,
			reason TEXT,
			patient_name VARCHAR(200) NOT NULL DEFAULT '',
			patient_age INTEGER,
			patient_phone VARCHAR(20) NOT NULL DEFAULT '',
			booker_name VARCHAR(200) NOT NULL DEFAULT '',
			booker_phone VARCHAR(20) NOT NULL DEFAULT '',
			is_booking_for_other BOOLEAN NOT NULL DEFAULT FALSE,
			kind VARCHAR(30) NOT NULL DEFAULT 'normal',
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			attendance VARCHAR(10) NOT NULL DEFAULT 'not_set',
			attendance_time TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createTrackedBookersTable = `
		CREATE TABLE IF NOT EXISTS tracked_bookers (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			doctor_id UUID NOT NULL REFERENCES doctors(id),
			booker_phone VARCHAR(20) NOT NULL,
			booker_name VARCHAR(200) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE (doctor_id, booker_phone)
		);`

	createNotificationsTable = `
		CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID,
			doctor_id UUID,
			kind VARCHAR(50) NOT NULL,
			message TEXT NOT NULL,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`
)

// SQL DDL statements for index creation
const (
	createUsersIndexes = `
		CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone);`

	createDoctorsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_doctors_status ON doctors(status);
		CREATE INDEX IF NOT EXISTS idx_doctors_specialty ON doctors(specialty);`

	// The unique slot index backs the one-live-booking-per-slot invariant at
	// the storage layer; the service pre-check remains for friendlier errors
	// but correctness no longer depends on it.
	createAppointmentsIndexes = `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_slot
			ON appointments(doctor_id, date, time, kind);
		CREATE INDEX IF NOT EXISTS idx_appointments_user_id ON appointments(user_id);
		CREATE INDEX IF NOT EXISTS idx_appointments_doctor_id ON appointments(doctor_id);
		CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(date);
		CREATE INDEX IF NOT EXISTS idx_appointments_booker_phone ON appointments(booker_phone);
		CREATE INDEX IF NOT EXISTS idx_appointments_created_at ON appointments(created_at);`

	createTrackedBookersIndexes = `
		CREATE INDEX IF NOT EXISTS idx_tracked_bookers_doctor_id ON tracked_bookers(doctor_id);
		CREATE INDEX IF NOT EXISTS idx_tracked_bookers_active ON tracked_bookers(is_active);`

	createNotificationsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id);
		CREATE INDEX IF NOT EXISTS idx_notifications_doctor_id ON notifications(doctor_id);
		CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at);`
)
