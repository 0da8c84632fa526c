package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/storage"
)

// Store implements storage.Store in memory. Used by tests and as a
// zero-dependency development mode.
type Store struct {
	mu               sync.RWMutex
	profiles         map[uuid.UUID]*models.Profile
	listings         map[uuid.UUID]*models.PGListing
	vendors          map[uuid.UUID]*models.LocalVendor
	reviews          map[uuid.UUID]*models.Review
	roommateProfiles map[uuid.UUID]*models.RoommateProfile // keyed by user_id
	rooms            map[uuid.UUID]*models.ChatRoom
	messagesByRoom   map[uuid.UUID][]*models.ChatMessage
	posts            map[uuid.UUID]*models.CommunityPost
	comments         map[uuid.UUID]*models.PostComment
}

func New() *Store {
	return &Store{
		profiles:         make(map[uuid.UUID]*models.Profile),
		listings:         make(map[uuid.UUID]*models.PGListing),
		vendors:          make(map[uuid.UUID]*models.LocalVendor),
		reviews:          make(map[uuid.UUID]*models.Review),
		roommateProfiles: make(map[uuid.UUID]*models.RoommateProfile),
		rooms:            make(map[uuid.UUID]*models.ChatRoom),
		messagesByRoom:   make(map[uuid.UUID][]*models.ChatMessage),
		posts:            make(map[uuid.UUID]*models.CommunityPost),
		comments:         make(map[uuid.UUID]*models.PostComment),
	}
}

// === Profiles ===

func (s *Store) CreateProfile(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.profiles {
		if p.Email != nil && existing.Email != nil && *p.Email == *existing.Email {
			return storage.ErrDuplicate
		}
		if p.Phone != nil && existing.Phone != nil && *p.Phone == *existing.Phone {
			return storage.ErrDuplicate
		}
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	s.profiles[p.ID] = p
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if p.Email != nil && *p.Email == email {
			return p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) UpdateProfile(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.ID]; !ok {
		return storage.ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	s.profiles[p.ID] = p
	return nil
}

// === PG listings ===

func (s *Store) CreateListing(ctx context.Context, l *models.PGListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now().UTC()
	l.UpdatedAt = l.CreatedAt
	s.listings[l.ID] = l
	return nil
}

func (s *Store) GetListing(ctx context.Context, id uuid.UUID) (*models.PGListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return l, nil
}

func (s *Store) UpdateListing(ctx context.Context, l *models.PGListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.listings[l.ID]
	if !ok {
		return storage.ErrNotFound
	}
	// Rating columns belong to the aggregation service.
	l.AverageRating = existing.AverageRating
	l.ReviewCount = existing.ReviewCount
	l.RatingSum = existing.RatingSum
	l.Version = existing.Version
	l.UpdatedAt = time.Now().UTC()
	s.listings[l.ID] = l
	return nil
}

func (s *Store) QueryListings(ctx context.Context, f storage.ListingFilter) ([]*models.PGListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.PGListing
	for _, l := range s.listings {
		if f.OnlyAvailable && !l.IsAvailable {
			continue
		}
		if f.City != "" && !strings.Contains(strings.ToLower(l.Address), strings.ToLower(f.City)) {
			continue
		}
		if f.MaxRent != nil && l.MonthlyRent > *f.MaxRent {
			continue
		}
		if f.GenderPreference != "" {
			if l.GenderPreference != nil && *l.GenderPreference != f.GenderPreference {
				continue
			}
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, f.Limit, f.Offset), nil
}

// === Local vendors ===

func (s *Store) CreateVendor(ctx context.Context, v *models.LocalVendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now().UTC()
	v.UpdatedAt = v.CreatedAt
	s.vendors[v.ID] = v
	return nil
}

func (s *Store) GetVendor(ctx context.Context, id uuid.UUID) (*models.LocalVendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vendors[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) UpdateVendor(ctx context.Context, v *models.LocalVendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.vendors[v.ID]
	if !ok {
		return storage.ErrNotFound
	}
	v.AverageRating = existing.AverageRating
	v.ReviewCount = existing.ReviewCount
	v.RatingSum = existing.RatingSum
	v.Version = existing.Version
	v.UpdatedAt = time.Now().UTC()
	s.vendors[v.ID] = v
	return nil
}

func (s *Store) QueryVendors(ctx context.Context, vendorType string, limit, offset int) ([]*models.LocalVendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.LocalVendor
	for _, v := range s.vendors {
		if vendorType != "" && v.Type != vendorType {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, limit, offset), nil
}

// === Rating state ===

func (s *Store) GetRatingState(ctx context.Context, entityType string, entityID uuid.UUID) (storage.RatingState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch entityType {
	case models.EntityTypePGListing:
		l, ok := s.listings[entityID]
		if !ok {
			return storage.RatingState{}, storage.ErrNotFound
		}
		return storage.RatingState{Sum: l.RatingSum, Count: int64(l.ReviewCount), Average: l.AverageRating, Version: l.Version}, nil
	case models.EntityTypeLocalVendor:
		v, ok := s.vendors[entityID]
		if !ok {
			return storage.RatingState{}, storage.ErrNotFound
		}
		return storage.RatingState{Sum: v.RatingSum, Count: int64(v.ReviewCount), Average: v.AverageRating, Version: v.Version}, nil
	default:
		return storage.RatingState{}, storage.ErrNotFound
	}
}

func (s *Store) PutRatingState(ctx context.Context, entityType string, entityID uuid.UUID, state storage.RatingState, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch entityType {
	case models.EntityTypePGListing:
		l, ok := s.listings[entityID]
		if !ok {
			return storage.ErrNotFound
		}
		if l.Version != expectedVersion {
			return storage.ErrVersionConflict
		}
		l.RatingSum = state.Sum
		l.ReviewCount = int(state.Count)
		l.AverageRating = state.Average
		l.Version = expectedVersion + 1
		l.UpdatedAt = time.Now().UTC()
	case models.EntityTypeLocalVendor:
		v, ok := s.vendors[entityID]
		if !ok {
			return storage.ErrNotFound
		}
		if v.Version != expectedVersion {
			return storage.ErrVersionConflict
		}
		v.RatingSum = state.Sum
		v.ReviewCount = int(state.Count)
		v.AverageRating = state.Average
		v.Version = expectedVersion + 1
		v.UpdatedAt = time.Now().UTC()
	default:
		return storage.ErrNotFound
	}
	return nil
}

// === Reviews ===

func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	s.reviews[r.ID] = r
	return nil
}

func (s *Store) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r, nil
}

func (s *Store) UpdateReview(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[r.ID]; !ok {
		return storage.ErrNotFound
	}
	r.UpdatedAt = time.Now().UTC()
	s.reviews[r.ID] = r
	return nil
}

func (s *Store) DeleteReview(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *Store) ReviewsForEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Review
	for _, r := range s.reviews {
		if r.EntityType == entityType && r.EntityID == entityID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, limit, offset), nil
}

func (s *Store) ReviewStats(ctx context.Context, entityType string, entityID uuid.UUID) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum, count int64
	for _, r := range s.reviews {
		if r.EntityType == entityType && r.EntityID == entityID {
			sum += int64(r.Rating)
			count++
		}
	}
	return sum, count, nil
}

// === Roommate profiles ===

func (s *Store) UpsertRoommateProfile(ctx context.Context, rp *models.RoommateProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.roommateProfiles[rp.UserID]; ok {
		rp.ID = existing.ID
		rp.CreatedAt = existing.CreatedAt
	} else {
		if rp.ID == uuid.Nil {
			rp.ID = uuid.New()
		}
		rp.CreatedAt = now
	}
	rp.UpdatedAt = now
	s.roommateProfiles[rp.UserID] = rp
	return nil
}

func (s *Store) GetRoommateProfileByUser(ctx context.Context, userID uuid.UUID) (*models.RoommateProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rp, ok := s.roommateProfiles[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return rp, nil
}

func (s *Store) ActiveRoommateProfiles(ctx context.Context) ([]*models.RoommateProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.RoommateProfile
	for _, rp := range s.roommateProfiles {
		if rp.IsActive {
			out = append(out, rp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// === Chat ===

func (s *Store) CreateRoom(ctx context.Context, r *models.ChatRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	s.rooms[r.ID] = r
	return nil
}

func (s *Store) GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r, nil
}

func (s *Store) SetRoomArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return storage.ErrNotFound
	}
	r.IsArchived = archived
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) AppendChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[msg.RoomID]
	if !ok {
		return storage.ErrNotFound
	}
	if msg.Seq != room.LastSeq+1 {
		return storage.ErrVersionConflict
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.CreatedAt = time.Now().UTC()
	s.messagesByRoom[msg.RoomID] = append(s.messagesByRoom[msg.RoomID], msg)
	room.LastSeq = msg.Seq
	room.UpdatedAt = msg.CreatedAt
	return nil
}

func (s *Store) MessagesAfter(ctx context.Context, roomID uuid.UUID, afterSeq int64, limit int) ([]*models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.rooms[roomID]; !ok {
		return nil, storage.ErrNotFound
	}
	msgs := s.messagesByRoom[roomID]
	out := make([]*models.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Seq > afterSeq {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Seq < out[j].Seq
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// === Community posts ===

func (s *Store) CreatePost(ctx context.Context, p *models.CommunityPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	s.posts[p.ID] = p
	return nil
}

func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (*models.CommunityPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) QueryPosts(ctx context.Context, f storage.PostFilter) ([]*models.CommunityPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.CommunityPost
	for _, p := range s.posts {
		if !f.IncludeArchived && p.IsArchived {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.College != "" && (p.College == nil || *p.College != f.College) {
			continue
		}
		out = append(out, p)
	}
	// Pinned posts first, then newest.
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, f.Limit, f.Offset), nil
}

func (s *Store) VotePost(ctx context.Context, id uuid.UUID, up bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return storage.ErrNotFound
	}
	if up {
		p.Upvotes++
	} else {
		p.Downvotes++
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) CreateComment(ctx context.Context, c *models.PostComment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[c.PostID]; !ok {
		return storage.ErrNotFound
	}
	if c.ParentID != nil {
		if _, ok := s.comments[*c.ParentID]; !ok {
			return storage.ErrNotFound
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now().UTC()
	s.comments[c.ID] = c
	return nil
}

func (s *Store) GetComment(ctx context.Context, id uuid.UUID) (*models.PostComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) CommentsForPost(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*models.PostComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.PostComment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return paginate(out, limit, offset), nil
}

func (s *Store) VoteComment(ctx context.Context, id uuid.UUID, up bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return storage.ErrNotFound
	}
	if up {
		c.Upvotes++
	} else {
		c.Downvotes++
	}
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
