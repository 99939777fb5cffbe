package database

import (
	"database/sql"
	"time"
)

// --- Testimonial Queries ---

const testimonialColumns = `id, name, text, date, source, image_url, rating, is_active, sort_order, created_at`

func scanTestimonial(row interface{ Scan(...interface{}) error }) (*Testimonial, error) {
	t := &Testimonial{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Text, &t.Date, &t.Source, &t.ImageURL,
		&t.Rating, &t.IsActive, &t.SortOrder, &t.CreatedAt,
	)
	return t, err
}

func (s *Service) CreateTestimonial(tx *sql.Tx, t *Testimonial) (*Testimonial, error) {
	query := `INSERT INTO testimonials (name, text, date, source, image_url, rating, is_active, sort_order)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?);`
	res, err := tx.Exec(query, t.Name, t.Text, t.Date, t.Source, t.ImageURL, t.Rating, t.IsActive, t.SortOrder)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return s.GetTestimonialByID(tx, id)
}

func (s *Service) GetTestimonialByID(db DBorTx, id int64) (*Testimonial, error) {
	return scanTestimonial(db.QueryRow(`SELECT `+testimonialColumns+` FROM testimonials WHERE id = ?;`, id))
}

// GetTestimonials lists testimonials, optionally restricted to approved ones.
// Active first by configured order, then newest first.
func (s *Service) GetTestimonials(db DBorTx, activeOnly bool) ([]*Testimonial, error) {
	query := `SELECT ` + testimonialColumns + ` FROM testimonials`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY sort_order, created_at DESC;`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var testimonials []*Testimonial
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, err
		}
		testimonials = append(testimonials, t)
	}
	return testimonials, rows.Err()
}

func (s *Service) UpdateTestimonial(tx *sql.Tx, t *Testimonial) error {
	query := `UPDATE testimonials
			  SET name = ?, text = ?, date = ?, source = ?, image_url = ?, rating = ?, is_active = ?, sort_order = ?
			  WHERE id = ?;`
	res, err := tx.Exec(query, t.Name, t.Text, t.Date, t.Source, t.ImageURL, t.Rating, t.IsActive, t.SortOrder, t.ID)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeleteTestimonial(tx *sql.Tx, id int64) error {
	res, err := tx.Exec(`DELETE FROM testimonials WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Screenshot Queries ---

const screenshotColumns = `id, name, message, amount, time, image_url, type, is_active, sort_order,
	show_name, show_message, show_amount, show_time, created_at, updated_at`

func scanScreenshot(row interface{ Scan(...interface{}) error }) (*Screenshot, error) {
	sc := &Screenshot{}
	err := row.Scan(
		&sc.ID, &sc.Name, &sc.Message, &sc.Amount, &sc.Time, &sc.ImageURL, &sc.Type,
		&sc.IsActive, &sc.SortOrder,
		&sc.ShowName, &sc.ShowMessage, &sc.ShowAmount, &sc.ShowTime,
		&sc.CreatedAt, &sc.UpdatedAt,
	)
	return sc, err
}

func (s *Service) CreateScreenshot(tx *sql.Tx, sc *Screenshot) (*Screenshot, error) {
	query := `INSERT INTO winning_screenshots
			  (name, message, amount, time, image_url, type, is_active, sort_order, show_name, show_message, show_amount, show_time)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	res, err := tx.Exec(query,
		sc.Name, sc.Message, sc.Amount, sc.Time, sc.ImageURL, sc.Type, sc.IsActive, sc.SortOrder,
		sc.ShowName, sc.ShowMessage, sc.ShowAmount, sc.ShowTime,
	)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return s.GetScreenshotByID(tx, id)
}

func (s *Service) GetScreenshotByID(db DBorTx, id int64) (*Screenshot, error) {
	return scanScreenshot(db.QueryRow(`SELECT `+screenshotColumns+` FROM winning_screenshots WHERE id = ?;`, id))
}

func (s *Service) GetScreenshots(db DBorTx, activeOnly bool) ([]*Screenshot, error) {
	query := `SELECT ` + screenshotColumns + ` FROM winning_screenshots`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY sort_order, created_at DESC;`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var screenshots []*Screenshot
	for rows.Next() {
		sc, err := scanScreenshot(rows)
		if err != nil {
			return nil, err
		}
		screenshots = append(screenshots, sc)
	}
	return screenshots, rows.Err()
}

func (s *Service) UpdateScreenshot(tx *sql.Tx, sc *Screenshot) error {
	query := `UPDATE winning_screenshots
			  SET name = ?, message = ?, amount = ?, time = ?, image_url = ?, type = ?, is_active = ?, sort_order = ?,
			      show_name = ?, show_message = ?, show_amount = ?, show_time = ?, updated_at = ?
			  WHERE id = ?;`
	res, err := tx.Exec(query,
		sc.Name, sc.Message, sc.Amount, sc.Time, sc.ImageURL, sc.Type, sc.IsActive, sc.SortOrder,
		sc.ShowName, sc.ShowMessage, sc.ShowAmount, sc.ShowTime, time.Now().UTC(), sc.ID,
	)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeleteScreenshot(tx *sql.Tx, id int64) error {
	res, err := tx.Exec(`DELETE FROM winning_screenshots WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Video Queries ---

const videoColumns = `id, title, url, thumbnail_url, is_active, is_tutorial, sort_order, created_at`

func scanVideo(row interface{ Scan(...interface{}) error }) (*Video, error) {
	v := &Video{}
	err := row.Scan(&v.ID, &v.Title, &v.URL, &v.ThumbnailURL, &v.IsActive, &v.IsTutorial, &v.SortOrder, &v.CreatedAt)
	return v, err
}

func (s *Service) CreateVideo(tx *sql.Tx, v *Video) (*Video, error) {
	query := `INSERT INTO videos (title, url, thumbnail_url, is_active, is_tutorial, sort_order)
			  VALUES (?, ?, ?, ?, ?, ?);`
	res, err := tx.Exec(query, v.Title, v.URL, v.ThumbnailURL, v.IsActive, v.IsTutorial, v.SortOrder)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return s.GetVideoByID(tx, id)
}

func (s *Service) GetVideoByID(db DBorTx, id int64) (*Video, error) {
	return scanVideo(db.QueryRow(`SELECT `+videoColumns+` FROM videos WHERE id = ?;`, id))
}

func (s *Service) GetVideos(db DBorTx, activeOnly bool) ([]*Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY sort_order, created_at DESC;`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (s *Service) UpdateVideo(tx *sql.Tx, v *Video) error {
	query := `UPDATE videos
			  SET title = ?, url = ?, thumbnail_url = ?, is_active = ?, is_tutorial = ?, sort_order = ?
			  WHERE id = ?;`
	res, err := tx.Exec(query, v.Title, v.URL, v.ThumbnailURL, v.IsActive, v.IsTutorial, v.SortOrder, v.ID)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeleteVideo(tx *sql.Tx, id int64) error {
	res, err := tx.Exec(`DELETE FROM videos WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Promo Code Queries ---

// GetActivePromoCode returns the single active code, or sql.ErrNoRows when
// none has been configured yet.
func (s *Service) GetActivePromoCode(db DBorTx) (*PromoCode, error) {
	code := &PromoCode{}
	err := db.QueryRow(`SELECT id, code, is_active FROM promo_codes WHERE is_active = 1;`).Scan(&code.ID, &code.Code, &code.IsActive)
	return code, err
}

// SetActivePromoCode makes the given code the single active one. Deactivating
// every row before activating keeps the partial unique index on is_active
// satisfied at all times within the transaction.
func (s *Service) SetActivePromoCode(tx *sql.Tx, code string) (*PromoCode, error) {
	if _, err := tx.Exec(`UPDATE promo_codes SET is_active = 0 WHERE is_active = 1;`); err != nil {
		return nil, err
	}

	// Reactivate an existing row for this code if there is one, otherwise insert.
	res, err := tx.Exec(`UPDATE promo_codes SET is_active = 1 WHERE code = ?;`, code)
	if err != nil {
		return nil, err
	}
	if rowsAffected, _ := res.RowsAffected(); rowsAffected == 0 {
		if _, err := tx.Exec(`INSERT INTO promo_codes (code, is_active) VALUES (?, 1);`, code); err != nil {
			return nil, err
		}
	}

	return s.GetActivePromoCode(tx)
}

// --- Settings Queries ---

// GetSetting returns the value for a key, or sql.ErrNoRows when unset.
func (s *Service) GetSetting(db DBorTx, key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM settings WHERE key = ?;`, key).Scan(&value)
	return value, err
}

func (s *Service) SetSetting(tx *sql.Tx, key, value string) error {
	query := `INSERT INTO settings (key, value) VALUES (?, ?)
			  ON CONFLICT(key) DO UPDATE SET value = excluded.value;`
	_, err := tx.Exec(query, key, value)
	return err
}

func (s *Service) GetAllSettings(db DBorTx) ([]Setting, error) {
	rows, err := db.Query(`SELECT key, value FROM settings ORDER BY key;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var setting Setting
		if err := rows.Scan(&setting.Key, &setting.Value); err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}
	return settings, rows.Err()
}

// --- Lead Queries ---

const leadColumns = `id, email, phone, promo_code, source, device, browser, country, status, created_at`

func scanLead(row interface{ Scan(...interface{}) error }) (*Lead, error) {
	l := &Lead{}
	err := row.Scan(
		&l.ID, &l.Email, &l.Phone, &l.PromoCode, &l.Source,
		&l.Device, &l.Browser, &l.Country, &l.Status, &l.CreatedAt,
	)
	return l, err
}

func (s *Service) CreateLead(tx *sql.Tx, l *Lead) (*Lead, error) {
	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	status := l.Status
	if status == "" {
		status = "new"
	}

	query := `INSERT INTO leads (email, phone, promo_code, source, device, browser, country, status, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`
	res, err := tx.Exec(query, l.Email, l.Phone, l.PromoCode, l.Source, l.Device, l.Browser, l.Country, status, createdAt)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return s.GetLeadByID(tx, id)
}

func (s *Service) GetLeadByID(db DBorTx, id int64) (*Lead, error) {
	return scanLead(db.QueryRow(`SELECT `+leadColumns+` FROM leads WHERE id = ?;`, id))
}

func (s *Service) GetLeads(db DBorTx) ([]*Lead, error) {
	rows, err := db.Query(`SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// UpdateLead rewrites a lead's admin-editable fields. The enrichment columns
// (device, browser, country) keep their captured values.
func (s *Service) UpdateLead(tx *sql.Tx, l *Lead) error {
	query := `UPDATE leads
			  SET email = ?, phone = ?, promo_code = ?, source = ?, status = ?
			  WHERE id = ?;`
	res, err := tx.Exec(query, l.Email, l.Phone, l.PromoCode, l.Source, l.Status, l.ID)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeleteLead(tx *sql.Tx, id int64) error {
	res, err := tx.Exec(`DELETE FROM leads WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
