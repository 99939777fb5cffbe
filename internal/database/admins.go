package database

import (
	"database/sql"

	"go.uber.org/zap"
)

// --- Admin Queries ---

func (s *Service) GetAdminByEmail(db DBorTx, email string) (*Admin, error) {
	query := `SELECT id, email, password_hash, name, role, created_at FROM admins WHERE email = ?;`
	admin := &Admin{}
	err := db.QueryRow(query, email).Scan(
		&admin.ID, &admin.Email, &admin.PasswordHash, &admin.Name, &admin.Role, &admin.CreatedAt,
	)
	if err != nil {
		return nil, err // Returns sql.ErrNoRows if not found
	}
	return admin, nil
}

func (s *Service) GetAdminByID(db DBorTx, id int64) (*Admin, error) {
	query := `SELECT id, email, password_hash, name, role, created_at FROM admins WHERE id = ?;`
	admin := &Admin{}
	err := db.QueryRow(query, id).Scan(
		&admin.ID, &admin.Email, &admin.PasswordHash, &admin.Name, &admin.Role, &admin.CreatedAt,
	)
	return admin, err
}

func (s *Service) CreateAdmin(tx *sql.Tx, email, passwordHash, name, role string) (*Admin, error) {
	query := `INSERT INTO admins (email, password_hash, name, role) VALUES (?, ?, ?, ?);`
	res, err := tx.Exec(query, email, passwordHash, name, role)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return s.GetAdminByID(tx, id)
}

func (s *Service) CountAdmins(db DBorTx) (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM admins;`).Scan(&count)
	return count, err
}

// SeedDefaultAdmin creates the initial admin account from configuration when
// the admins table is empty. Safe to call on every startup: an existing
// account means nothing happens.
func (s *Service) SeedDefaultAdmin(email, passwordHash, name string) error {
	count, err := s.CountAdmins(s.db)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if email == "" || passwordHash == "" {
		s.log.Warn("admins table is empty and no ADMIN_EMAIL/ADMIN_PASSWORD configured, skipping seed")
		return nil
	}

	err = s.Write(func(tx *sql.Tx) error {
		_, err := s.CreateAdmin(tx, email, passwordHash, name, "admin")
		return err
	})
	if err != nil {
		return err
	}
	s.log.Info("seeded default admin account", zap.String("email", email))
	return nil
}
