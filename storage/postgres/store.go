package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/storage"
)

// Store implements storage.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func tableForEntityType(entityType string) (string, error) {
	switch entityType {
	case models.EntityTypePGListing:
		return "pg_listings", nil
	case models.EntityTypeLocalVendor:
		return "local_vendors", nil
	default:
		return "", fmt.Errorf("%w: unknown entity type %q", storage.ErrNotFound, entityType)
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// === Profiles ===

const profileColumns = `id, username, full_name, avatar_url, role, gender, college, batch_year,
	phone, email, is_verified, password_hash, push_token, created_at, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Username, &p.FullName, &p.AvatarURL, &p.Role, &p.Gender,
		&p.College, &p.BatchYear, &p.Phone, &p.Email, &p.IsVerified, &p.PasswordHash,
		&p.PushToken, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProfile(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (username, full_name, avatar_url, role, gender, college, batch_year,
			phone, email, is_verified, password_hash, push_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, p.Username, p.FullName, p.AvatarURL, p.Role,
		p.Gender, p.College, p.BatchYear, p.Phone, p.Email, p.IsVerified, p.PasswordHash,
		p.PushToken).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	return scanProfile(s.db.QueryRowContext(ctx, query, email))
}

func (s *Store) UpdateProfile(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE profiles
		SET username = $1, full_name = $2, avatar_url = $3, role = $4, gender = $5,
			college = $6, batch_year = $7, phone = $8, email = $9, is_verified = $10,
			push_token = $11, updated_at = now()
		WHERE id = $12`
	res, err := s.db.ExecContext(ctx, query, p.Username, p.FullName, p.AvatarURL, p.Role,
		p.Gender, p.College, p.BatchYear, p.Phone, p.Email, p.IsVerified, p.PushToken, p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return err
	}
	return requireRow(res)
}

// === PG listings ===

const listingColumns = `id, owner_id, title, description, address, latitude, longitude,
	monthly_rent, security_deposit, is_shared, max_occupancy, gender_preference, amenities,
	rules, images, contact_phone, contact_email, is_available, average_rating, review_count,
	rating_sum, version, created_at, updated_at`

func scanListing(row interface{ Scan(...interface{}) error }) (*models.PGListing, error) {
	var l models.PGListing
	err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.Address,
		&l.Location.Latitude, &l.Location.Longitude,
		&l.MonthlyRent, &l.SecurityDeposit, &l.IsShared, &l.MaxOccupancy,
		&l.GenderPreference, &l.Amenities, &l.Rules, &l.Images, &l.ContactPhone,
		&l.ContactEmail, &l.IsAvailable, &l.AverageRating, &l.ReviewCount, &l.RatingSum,
		&l.Version, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) CreateListing(ctx context.Context, l *models.PGListing) error {
	query := `
		INSERT INTO pg_listings (owner_id, title, description, address, latitude, longitude,
			monthly_rent, security_deposit, is_shared, max_occupancy, gender_preference,
			amenities, rules, images, contact_phone, contact_email, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query, l.OwnerID, l.Title, l.Description, l.Address,
		l.Location.Latitude, l.Location.Longitude,
		l.MonthlyRent, l.SecurityDeposit, l.IsShared, l.MaxOccupancy,
		l.GenderPreference, l.Amenities, l.Rules, l.Images, l.ContactPhone, l.ContactEmail,
		l.IsAvailable).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (s *Store) GetListing(ctx context.Context, id uuid.UUID) (*models.PGListing, error) {
	query := `SELECT ` + listingColumns + ` FROM pg_listings WHERE id = $1`
	return scanListing(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) UpdateListing(ctx context.Context, l *models.PGListing) error {
	// Rating columns are deliberately not written here; they belong to
	// PutRatingState.
	query := `
		UPDATE pg_listings
		SET title = $1, description = $2, address = $3, latitude = $4, longitude = $5,
			monthly_rent = $6, security_deposit = $7, is_shared = $8, max_occupancy = $9,
			gender_preference = $10, amenities = $11, rules = $12, images = $13,
			contact_phone = $14, contact_email = $15, is_available = $16, updated_at = now()
		WHERE id = $17`
	res, err := s.db.ExecContext(ctx, query, l.Title, l.Description, l.Address,
		l.Location.Latitude, l.Location.Longitude,
		l.MonthlyRent, l.SecurityDeposit, l.IsShared, l.MaxOccupancy,
		l.GenderPreference, l.Amenities, l.Rules, l.Images, l.ContactPhone, l.ContactEmail,
		l.IsAvailable, l.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) QueryListings(ctx context.Context, f storage.ListingFilter) ([]*models.PGListing, error) {
	var conditions []string
	var args []interface{}

	if f.OnlyAvailable {
		conditions = append(conditions, "is_available = TRUE")
	}
	if f.City != "" {
		args = append(args, "%"+f.City+"%")
		conditions = append(conditions, fmt.Sprintf("address ILIKE $%d", len(args)))
	}
	if f.MaxRent != nil {
		args = append(args, *f.MaxRent)
		conditions = append(conditions, fmt.Sprintf("monthly_rent <= $%d", len(args)))
	}
	if f.GenderPreference != "" {
		args = append(args, f.GenderPreference)
		conditions = append(conditions, fmt.Sprintf("(gender_preference IS NULL OR gender_preference = $%d)", len(args)))
	}

	query := `SELECT ` + listingColumns + ` FROM pg_listings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	args = append(args, limitOrDefault(f.Limit), f.Offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PGListing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// === Local vendors ===

const vendorColumns = `id, owner_id, name, type, description, address, latitude, longitude,
	contact_phone, contact_email, operating_hours, services, price_min, price_max, images,
	is_verified, average_rating, review_count, rating_sum, version, created_at, updated_at`

func scanVendor(row interface{ Scan(...interface{}) error }) (*models.LocalVendor, error) {
	var v models.LocalVendor
	var priceMin, priceMax sql.NullFloat64
	err := row.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Type, &v.Description, &v.Address,
		&v.Location.Latitude, &v.Location.Longitude, &v.ContactPhone, &v.ContactEmail,
		&v.OperatingHours, &v.Services, &priceMin, &priceMax, &v.Images, &v.IsVerified,
		&v.AverageRating, &v.ReviewCount, &v.RatingSum, &v.Version, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if priceMin.Valid && priceMax.Valid {
		v.PriceRange = &models.PriceRange{Min: priceMin.Float64, Max: priceMax.Float64}
	}
	return &v, nil
}

// vendorPriceArgs flattens the optional price range into nullable
// price_min/price_max column values.
func vendorPriceArgs(v *models.LocalVendor) (interface{}, interface{}) {
	if v.PriceRange == nil {
		return nil, nil
	}
	return v.PriceRange.Min, v.PriceRange.Max
}

func (s *Store) CreateVendor(ctx context.Context, v *models.LocalVendor) error {
	query := `
		INSERT INTO local_vendors (owner_id, name, type, description, address, latitude,
			longitude, contact_phone, contact_email, operating_hours, services, price_min,
			price_max, images, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`
	priceMin, priceMax := vendorPriceArgs(v)
	return s.db.QueryRowContext(ctx, query, v.OwnerID, v.Name, v.Type, v.Description,
		v.Address, v.Location.Latitude, v.Location.Longitude, v.ContactPhone, v.ContactEmail,
		v.OperatingHours, v.Services, priceMin, priceMax, v.Images, v.IsVerified).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
}

func (s *Store) GetVendor(ctx context.Context, id uuid.UUID) (*models.LocalVendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM local_vendors WHERE id = $1`
	return scanVendor(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) UpdateVendor(ctx context.Context, v *models.LocalVendor) error {
	query := `
		UPDATE local_vendors
		SET name = $1, type = $2, description = $3, address = $4, latitude = $5,
			longitude = $6, contact_phone = $7, contact_email = $8, operating_hours = $9,
			services = $10, price_min = $11, price_max = $12, images = $13, is_verified = $14,
			updated_at = now()
		WHERE id = $15`
	priceMin, priceMax := vendorPriceArgs(v)
	res, err := s.db.ExecContext(ctx, query, v.Name, v.Type, v.Description, v.Address,
		v.Location.Latitude, v.Location.Longitude, v.ContactPhone, v.ContactEmail,
		v.OperatingHours, v.Services, priceMin, priceMax, v.Images, v.IsVerified, v.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) QueryVendors(ctx context.Context, vendorType string, limit, offset int) ([]*models.LocalVendor, error) {
	var rows *sql.Rows
	var err error
	if vendorType != "" {
		query := `SELECT ` + vendorColumns + ` FROM local_vendors WHERE type = $1
			ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = s.db.QueryContext(ctx, query, vendorType, limitOrDefault(limit), offset)
	} else {
		query := `SELECT ` + vendorColumns + ` FROM local_vendors
			ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = s.db.QueryContext(ctx, query, limitOrDefault(limit), offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.LocalVendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// === Rating state ===

func (s *Store) GetRatingState(ctx context.Context, entityType string, entityID uuid.UUID) (storage.RatingState, error) {
	table, err := tableForEntityType(entityType)
	if err != nil {
		return storage.RatingState{}, err
	}
	var state storage.RatingState
	query := fmt.Sprintf(`SELECT rating_sum, review_count, average_rating, version FROM %s WHERE id = $1`, table)
	err = s.db.QueryRowContext(ctx, query, entityID).
		Scan(&state.Sum, &state.Count, &state.Average, &state.Version)
	if err == sql.ErrNoRows {
		return storage.RatingState{}, storage.ErrNotFound
	}
	return state, err
}

func (s *Store) PutRatingState(ctx context.Context, entityType string, entityID uuid.UUID, state storage.RatingState, expectedVersion int64) error {
	table, err := tableForEntityType(entityType)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		UPDATE %s
		SET rating_sum = $1, review_count = $2, average_rating = $3, version = version + 1,
			updated_at = now()
		WHERE id = $4 AND version = $5`, table)
	res, err := s.db.ExecContext(ctx, query, state.Sum, state.Count, state.Average, entityID, expectedVersion)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		check := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, table)
		if err := s.db.QueryRowContext(ctx, check, entityID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return storage.ErrNotFound
		}
		return storage.ErrVersionConflict
	}
	return nil
}

// === Reviews ===

const reviewColumns = `id, author_id, entity_type, entity_id, rating, content, images,
	created_at, updated_at`

func scanReview(row interface{ Scan(...interface{}) error }) (*models.Review, error) {
	var r models.Review
	err := row.Scan(&r.ID, &r.AuthorID, &r.EntityType, &r.EntityID, &r.Rating, &r.Content,
		&r.Images, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	query := `
		INSERT INTO reviews (author_id, entity_type, entity_id, rating, content, images)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query, r.AuthorID, r.EntityType, r.EntityID, r.Rating,
		r.Content, r.Images).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
}

func (s *Store) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	return scanReview(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) UpdateReview(ctx context.Context, r *models.Review) error {
	query := `UPDATE reviews SET rating = $1, content = $2, images = $3, updated_at = now() WHERE id = $4`
	res, err := s.db.ExecContext(ctx, query, r.Rating, r.Content, r.Images, r.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteReview(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) ReviewsForEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := s.db.QueryContext(ctx, query, entityType, entityID, limitOrDefault(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ReviewStats(ctx context.Context, entityType string, entityID uuid.UUID) (int64, int64, error) {
	var sum, count int64
	query := `SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM reviews
		WHERE entity_type = $1 AND entity_id = $2`
	err := s.db.QueryRowContext(ctx, query, entityType, entityID).Scan(&sum, &count)
	return sum, count, err
}

// === Roommate profiles ===

const roommateColumns = `id, user_id, bio, preferences, budget_min, budget_max,
	preferred_locations, lifestyle_tags, is_smoking_ok, is_pets_ok, move_in_date,
	duration_months, is_active, created_at, updated_at`

func scanRoommateProfile(row interface{ Scan(...interface{}) error }) (*models.RoommateProfile, error) {
	var rp models.RoommateProfile
	err := row.Scan(&rp.ID, &rp.UserID, &rp.Bio, &rp.Preferences, &rp.BudgetRange.Min,
		&rp.BudgetRange.Max, &rp.PreferredLocations, &rp.LifestyleTags, &rp.IsSmokingOK,
		&rp.IsPetsOK, &rp.MoveInDate, &rp.DurationMonths, &rp.IsActive, &rp.CreatedAt,
		&rp.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *Store) UpsertRoommateProfile(ctx context.Context, rp *models.RoommateProfile) error {
	query := `
		INSERT INTO roommate_profiles (user_id, bio, preferences, budget_min, budget_max,
			preferred_locations, lifestyle_tags, is_smoking_ok, is_pets_ok, move_in_date,
			duration_months, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			bio = EXCLUDED.bio,
			preferences = EXCLUDED.preferences,
			budget_min = EXCLUDED.budget_min,
			budget_max = EXCLUDED.budget_max,
			preferred_locations = EXCLUDED.preferred_locations,
			lifestyle_tags = EXCLUDED.lifestyle_tags,
			is_smoking_ok = EXCLUDED.is_smoking_ok,
			is_pets_ok = EXCLUDED.is_pets_ok,
			move_in_date = EXCLUDED.move_in_date,
			duration_months = EXCLUDED.duration_months,
			is_active = EXCLUDED.is_active,
			updated_at = now()
		RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query, rp.UserID, rp.Bio, rp.Preferences,
		rp.BudgetRange.Min, rp.BudgetRange.Max, rp.PreferredLocations, rp.LifestyleTags,
		rp.IsSmokingOK, rp.IsPetsOK, rp.MoveInDate, rp.DurationMonths, rp.IsActive).
		Scan(&rp.ID, &rp.CreatedAt, &rp.UpdatedAt)
}

func (s *Store) GetRoommateProfileByUser(ctx context.Context, userID uuid.UUID) (*models.RoommateProfile, error) {
	query := `SELECT ` + roommateColumns + ` FROM roommate_profiles WHERE user_id = $1`
	return scanRoommateProfile(s.db.QueryRowContext(ctx, query, userID))
}

func (s *Store) ActiveRoommateProfiles(ctx context.Context) ([]*models.RoommateProfile, error) {
	query := `SELECT ` + roommateColumns + ` FROM roommate_profiles WHERE is_active = TRUE ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.RoommateProfile
	for rows.Next() {
		rp, err := scanRoommateProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, rows.Err()
}

// === Chat ===

func (s *Store) CreateRoom(ctx context.Context, r *models.ChatRoom) error {
	query := `
		INSERT INTO chat_rooms (type, metadata, is_archived)
		VALUES ($1, $2, $3)
		RETURNING id, last_seq, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query, r.Type, r.Metadata, r.IsArchived).
		Scan(&r.ID, &r.LastSeq, &r.CreatedAt, &r.UpdatedAt)
}

func (s *Store) GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	var r models.ChatRoom
	query := `SELECT id, type, metadata, is_archived, last_seq, created_at, updated_at
		FROM chat_rooms WHERE id = $1`
	err := s.db.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.Type, &r.Metadata,
		&r.IsArchived, &r.LastSeq, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) SetRoomArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_rooms SET is_archived = $1, updated_at = now() WHERE id = $2`, archived, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AppendChatMessage inserts the message and advances last_seq in one
// transaction. The guarded UPDATE makes the append a compare-and-swap:
// if another writer took this sequence position first, the transaction
// rolls back with ErrVersionConflict and the sequencer retries.
func (s *Store) AppendChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE chat_rooms SET last_seq = $1, updated_at = now() WHERE id = $2 AND last_seq = $1 - 1`,
		msg.Seq, msg.RoomID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM chat_rooms WHERE id = $1)`, msg.RoomID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return storage.ErrNotFound
		}
		return storage.ErrVersionConflict
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO chat_messages (id, room_id, sender_id, seq, content, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		msg.ID, msg.RoomID, msg.SenderID, msg.Seq, msg.Content, msg.Metadata).
		Scan(&msg.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) MessagesAfter(ctx context.Context, roomID uuid.UUID, afterSeq int64, limit int) ([]*models.ChatMessage, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT id, room_id, sender_id, seq, content, metadata, created_at
		FROM chat_messages WHERE room_id = $1 AND seq > $2 ORDER BY seq ASC LIMIT $3`
	rows, err := s.db.QueryContext(ctx, query, roomID, afterSeq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Seq, &m.Content, &m.Metadata,
			&m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// === Community posts ===

const postColumns = `id, author_id, title, content, category, tags, college, batch_year,
	upvotes, downvotes, is_pinned, is_archived, created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }) (*models.CommunityPost, error) {
	var p models.CommunityPost
	err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.Category, &p.Tags,
		&p.College, &p.BatchYear, &p.Upvotes, &p.Downvotes, &p.IsPinned, &p.IsArchived,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePost(ctx context.Context, p *models.CommunityPost) error {
	query := `
		INSERT INTO community_posts (author_id, title, content, category, tags, college, batch_year)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query, p.AuthorID, p.Title, p.Content, p.Category,
		p.Tags, p.College, p.BatchYear).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (*models.CommunityPost, error) {
	query := `SELECT ` + postColumns + ` FROM community_posts WHERE id = $1`
	return scanPost(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) QueryPosts(ctx context.Context, f storage.PostFilter) ([]*models.CommunityPost, error) {
	var conditions []string
	var args []interface{}

	if !f.IncludeArchived {
		conditions = append(conditions, "is_archived = FALSE")
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.College != "" {
		args = append(args, f.College)
		conditions = append(conditions, fmt.Sprintf("college = $%d", len(args)))
	}

	query := `SELECT ` + postColumns + ` FROM community_posts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY is_pinned DESC, created_at DESC"
	args = append(args, limitOrDefault(f.Limit), f.Offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.CommunityPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) VotePost(ctx context.Context, id uuid.UUID, up bool) error {
	column := "downvotes"
	if up {
		column = "upvotes"
	}
	query := fmt.Sprintf(`UPDATE community_posts SET %s = %s + 1, updated_at = now() WHERE id = $1`, column, column)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) CreateComment(ctx context.Context, c *models.PostComment) error {
	query := `
		INSERT INTO post_comments (post_id, author_id, parent_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query, c.PostID, c.AuthorID, c.ParentID, c.Content).
		Scan(&c.ID, &c.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		// Foreign key violation: post or parent comment missing.
		return storage.ErrNotFound
	}
	return err
}

func (s *Store) GetComment(ctx context.Context, id uuid.UUID) (*models.PostComment, error) {
	var c models.PostComment
	query := `SELECT id, post_id, author_id, parent_id, content, upvotes, downvotes, created_at
		FROM post_comments WHERE id = $1`
	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.PostID, &c.AuthorID,
		&c.ParentID, &c.Content, &c.Upvotes, &c.Downvotes, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CommentsForPost(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*models.PostComment, error) {
	query := `SELECT id, post_id, author_id, parent_id, content, upvotes, downvotes, created_at
		FROM post_comments WHERE post_id = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := s.db.QueryContext(ctx, query, postID, limitOrDefault(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PostComment
	for rows.Next() {
		var c models.PostComment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.ParentID, &c.Content,
			&c.Upvotes, &c.Downvotes, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *Store) VoteComment(ctx context.Context, id uuid.UUID, up bool) error {
	column := "downvotes"
	if up {
		column = "upvotes"
	}
	query := fmt.Sprintf(`UPDATE post_comments SET %s = %s + 1 WHERE id = $1`, column, column)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// === helpers ===

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
