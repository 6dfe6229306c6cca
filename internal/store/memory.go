package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps all state in process behind one mutex.
// Every multi-row operation runs under the lock, so it is as atomic as the
// Postgres transactions it stands in for.
type MemoryStore struct {
	mu            sync.Mutex
	seq           int64
	users         map[int64]models.User
	categories    map[int64]models.Category
	videos        map[int64]models.Video
	accesses      map[int64]models.Access
	payments      map[int64]models.Payment
	announcements map[int64]models.Announcement
	accessCodes   map[int64]models.AccessCode
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         map[int64]models.User{},
		categories:    map[int64]models.Category{},
		videos:        map[int64]models.Video{},
		accesses:      map[int64]models.Access{},
		payments:      map[int64]models.Payment{},
		announcements: map[int64]models.Announcement{},
		accessCodes:   map[int64]models.AccessCode{},
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) nextID() int64 {
	s.seq++
	return s.seq
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Users

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, u := range s.users {
		if !u.IsDeleted && strings.ToLower(u.Email) == email {
			return ErrEmailTaken
		}
	}

	user.ID = s.nextID()
	user.CreatedAt = stamp(user.CreatedAt)
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if !u.IsDeleted && strings.ToLower(u.Email) == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		if u.IsDeleted {
			continue
		}
		u := u
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return users, nil
}

func (s *MemoryStore) SetUserActive(ctx context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.IsDeleted {
		return ErrNotFound
	}
	u.IsActive = active
	s.users[id] = u
	return nil
}

func (s *MemoryStore) SoftDeleteUser(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.IsDeleted {
		return ErrNotFound
	}
	at = at.UTC()
	u.IsDeleted = true
	u.IsActive = false
	u.DeletedAt = &at
	s.users[id] = u
	return nil
}

func (s *MemoryStore) CreditWallet(ctx context.Context, userID int64, amount decimal.Decimal, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok || u.IsDeleted {
		return ErrNotFound
	}
	u.Balance = u.Balance.Add(amount)
	s.users[userID] = u

	payment.ID = s.nextID()
	payment.UserID = userID
	payment.CreatedAt = stamp(payment.CreatedAt)
	payment.UpdatedAt = payment.CreatedAt
	s.payments[payment.ID] = *payment
	return nil
}

// Categories

func (s *MemoryStore) categoryNameTaken(name string, exceptID int64) bool {
	for _, c := range s.categories {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) videosInCategory(id int64) int {
	n := 0
	for _, v := range s.videos {
		if v.CategoryID != nil && *v.CategoryID == id {
			n++
		}
	}
	return n
}

func (s *MemoryStore) CreateCategory(ctx context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.categoryNameTaken(category.Name, 0) {
		return ErrCategoryExists
	}
	category.ID = s.nextID()
	category.CreatedAt = stamp(category.CreatedAt)
	s.categories[category.ID] = *category
	return nil
}

func (s *MemoryStore) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.VideoCount = s.videosInCategory(id)
	return &c, nil
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories := make([]*models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		c := c
		c.VideoCount = s.videosInCategory(c.ID)
		categories = append(categories, &c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *MemoryStore) UpdateCategory(ctx context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[category.ID]
	if !ok {
		return ErrNotFound
	}
	if s.categoryNameTaken(category.Name, category.ID) {
		return ErrCategoryExists
	}
	existing.Name = category.Name
	existing.Description = category.Description
	s.categories[category.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	if n := s.videosInCategory(id); n > 0 {
		return &CategoryInUseError{Count: n}
	}
	delete(s.categories, id)
	return nil
}

func (s *MemoryStore) CategoryStats(ctx context.Context) ([]*models.CategoryStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make([]*models.CategoryStat, 0, len(s.categories))
	for _, c := range s.categories {
		stat := &models.CategoryStat{ID: c.ID, Name: c.Name, Description: c.Description}
		for _, v := range s.videos {
			if v.CategoryID == nil || *v.CategoryID != c.ID {
				continue
			}
			stat.Total++
			if v.IsPremium {
				stat.Premium++
			} else {
				stat.Free++
			}
		}
		stats = append(stats, stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats, nil
}

// Videos

func (s *MemoryStore) withCategory(v models.Video) *models.Video {
	if v.CategoryID != nil {
		if c, ok := s.categories[*v.CategoryID]; ok {
			v.CategoryName = c.Name
		}
	}
	return &v
}

func (s *MemoryStore) CreateVideo(ctx context.Context, video *models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if video.CategoryID != nil {
		if _, ok := s.categories[*video.CategoryID]; !ok {
			return ErrNotFound
		}
	}
	video.ID = s.nextID()
	video.CreatedAt = stamp(video.CreatedAt)
	s.videos[video.ID] = *video
	return nil
}

func (s *MemoryStore) GetVideo(ctx context.Context, id int64) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.withCategory(v), nil
}

func (s *MemoryStore) UpdateVideo(ctx context.Context, video *models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.videos[video.ID]
	if !ok {
		return ErrNotFound
	}
	if video.CategoryID != nil {
		if _, ok := s.categories[*video.CategoryID]; !ok {
			return ErrNotFound
		}
	}
	video.CreatedAt = existing.CreatedAt
	s.videos[video.ID] = *video
	return nil
}

func (s *MemoryStore) DeleteVideo(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[id]; !ok {
		return ErrNotFound
	}
	for aid, a := range s.accesses {
		if a.VideoID == id {
			delete(s.accesses, aid)
		}
	}
	delete(s.videos, id)
	return nil
}

func (s *MemoryStore) listVideos(match func(models.Video) bool) []*models.Video {
	videos := make([]*models.Video, 0, len(s.videos))
	for _, v := range s.videos {
		if match(v) {
			videos = append(videos, s.withCategory(v))
		}
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].ID > videos[j].ID })
	return videos
}

func (s *MemoryStore) ListVideos(ctx context.Context) ([]*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listVideos(func(models.Video) bool { return true }), nil
}

func (s *MemoryStore) SearchVideos(ctx context.Context, query string) ([]*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	return s.listVideos(func(v models.Video) bool {
		return strings.Contains(strings.ToLower(v.Title), q) ||
			strings.Contains(strings.ToLower(v.Description), q)
	}), nil
}

// Accesses

func (s *MemoryStore) FindValidAccess(ctx context.Context, userID, videoID int64, now time.Time) (*models.Access, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *models.Access
	for _, a := range s.accesses {
		if a.UserID != userID || a.VideoID != videoID || !a.IsValid(now) {
			continue
		}
		if found == nil || a.ExpiresAt.After(found.ExpiresAt) {
			a := a
			found = &a
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *MemoryStore) ListValidAccesses(ctx context.Context, userID int64, now time.Time) ([]*models.Access, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accesses []*models.Access
	for _, a := range s.accesses {
		if a.UserID != userID || !a.IsValid(now) {
			continue
		}
		a := a
		if v, ok := s.videos[a.VideoID]; ok {
			a.Video = s.withCategory(v)
		}
		accesses = append(accesses, &a)
	}
	sort.Slice(accesses, func(i, j int) bool { return accesses[i].ExpiresAt.Before(accesses[j].ExpiresAt) })
	return accesses, nil
}

func (s *MemoryStore) PurchaseAccess(ctx context.Context, userID, videoID int64, price decimal.Decimal, now, expiresAt time.Time) (*models.Access, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok || u.IsDeleted {
		return nil, ErrNotFound
	}
	if _, ok := s.videos[videoID]; !ok {
		return nil, ErrNotFound
	}
	if !u.CanAfford(price) {
		return nil, ErrInsufficientBalance
	}

	u.Balance = u.Balance.Sub(price)
	s.users[userID] = u

	access := models.Access{
		ID:        s.nextID(),
		UserID:    userID,
		VideoID:   videoID,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now.UTC(),
	}
	s.accesses[access.ID] = access
	return &access, nil
}

// Payments

func (s *MemoryStore) withEmail(p models.Payment) *models.Payment {
	if u, ok := s.users[p.UserID]; ok {
		p.UserEmail = u.Email
	}
	return &p
}

func (s *MemoryStore) listPayments(match func(models.Payment) bool) []*models.Payment {
	payments := make([]*models.Payment, 0)
	for _, p := range s.payments {
		if match(p) {
			payments = append(payments, s.withEmail(p))
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID > payments[j].ID })
	return payments
}

func (s *MemoryStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[payment.UserID]; !ok {
		return ErrNotFound
	}
	payment.ID = s.nextID()
	payment.CreatedAt = stamp(payment.CreatedAt)
	payment.UpdatedAt = payment.CreatedAt
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	s.payments[payment.ID] = *payment
	return nil
}

func (s *MemoryStore) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.withEmail(p), nil
}

func (s *MemoryStore) GetPaymentByProof(ctx context.Context, proofRef string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.ProofRef != "" && p.ProofRef == proofRef {
			return s.withEmail(p), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListPayments(ctx context.Context, status models.PaymentStatus) ([]*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listPayments(func(p models.Payment) bool {
		return status == "" || p.Status == status
	}), nil
}

func (s *MemoryStore) ListUserPayments(ctx context.Context, userID int64) ([]*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listPayments(func(p models.Payment) bool { return p.UserID == userID }), nil
}

func (s *MemoryStore) CountPayments(ctx context.Context) (*models.PaymentCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := &models.PaymentCounts{}
	for _, p := range s.payments {
		switch p.Status {
		case models.PaymentStatusPending:
			counts.Pending++
		case models.PaymentStatusCompleted:
			counts.Completed++
		case models.PaymentStatusRejected:
			counts.Rejected++
		}
		counts.Total++
	}
	return counts, nil
}

func (s *MemoryStore) CompletedPaymentsSince(ctx context.Context, since time.Time) ([]*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listPayments(func(p models.Payment) bool {
		return p.Status == models.PaymentStatusCompleted && !p.CreatedAt.Before(since)
	}), nil
}

func (s *MemoryStore) RecentCompletedPayments(ctx context.Context, limit int) ([]*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payments := s.listPayments(func(p models.Payment) bool {
		return p.Status == models.PaymentStatusCompleted
	})
	if len(payments) > limit {
		payments = payments[:limit]
	}
	return payments, nil
}

func (s *MemoryStore) SettlePayment(ctx context.Context, id int64, status models.PaymentStatus, notes string, now time.Time) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !p.CanTransitionTo(status) {
		return s.withEmail(p), ErrPaymentSettled
	}

	if status == models.PaymentStatusCompleted {
		u, ok := s.users[p.UserID]
		if !ok {
			return nil, ErrNotFound
		}
		u.Balance = u.Balance.Add(p.Amount)
		s.users[p.UserID] = u
	}

	p.Status = status
	p.AdminNotes = notes
	p.UpdatedAt = now.UTC()
	s.payments[id] = p
	return s.withEmail(p), nil
}

// Announcements

func (s *MemoryStore) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.nextID()
	a.CreatedAt = stamp(a.CreatedAt)
	a.UpdatedAt = a.CreatedAt
	s.announcements[a.ID] = *a
	return nil
}

func (s *MemoryStore) GetAnnouncement(ctx context.Context, id int64) (*models.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.announcements[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) UpdateAnnouncement(ctx context.Context, a *models.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.announcements[a.ID]
	if !ok {
		return ErrNotFound
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = stamp(a.UpdatedAt)
	s.announcements[a.ID] = *a
	return nil
}

func (s *MemoryStore) DeleteAnnouncement(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.announcements[id]; !ok {
		return ErrNotFound
	}
	delete(s.announcements, id)
	return nil
}

func (s *MemoryStore) listAnnouncements(activeOnly bool) []*models.Announcement {
	list := make([]*models.Announcement, 0, len(s.announcements))
	for _, a := range s.announcements {
		if activeOnly && !a.IsActive {
			continue
		}
		a := a
		list = append(list, &a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list
}

func (s *MemoryStore) ListAnnouncements(ctx context.Context) ([]*models.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listAnnouncements(false), nil
}

func (s *MemoryStore) ListActiveAnnouncements(ctx context.Context) ([]*models.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listAnnouncements(true), nil
}

// Access codes

func (s *MemoryStore) CreateAccessCode(ctx context.Context, code *models.AccessCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.accessCodes {
		if c.Code == code.Code {
			return ErrAccessCodeExists
		}
	}
	code.ID = s.nextID()
	code.CreatedAt = stamp(code.CreatedAt)
	s.accessCodes[code.ID] = *code
	return nil
}

func (s *MemoryStore) ListAccessCodes(ctx context.Context) ([]*models.AccessCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	codes := make([]*models.AccessCode, 0, len(s.accessCodes))
	for _, c := range s.accessCodes {
		c := c
		codes = append(codes, &c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].ID > codes[j].ID })
	return codes, nil
}

func (s *MemoryStore) DeleteAccessCode(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accessCodes[id]; !ok {
		return ErrNotFound
	}
	delete(s.accessCodes, id)
	return nil
}

func (s *MemoryStore) BindAccessCode(ctx context.Context, code, deviceID string, now time.Time) (*models.AccessCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.accessCodes {
		if c.Code != code {
			continue
		}
		if !c.IsValid(now) {
			return nil, ErrAccessCodeExpired
		}
		if c.IsBound() {
			if c.DeviceID != deviceID {
				return nil, ErrAccessCodeBound
			}
			return &c, nil
		}
		bound := now.UTC()
		c.DeviceID = deviceID
		c.BoundAt = &bound
		s.accessCodes[id] = c
		return &c, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindValidAccessCode(ctx context.Context, deviceID string, now time.Time) (*models.AccessCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.accessCodes {
		if c.UnlocksFor(deviceID, now) {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// Totals

func (s *MemoryStore) Totals(ctx context.Context) (*models.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &models.Totals{Revenue: decimal.Zero}
	for _, u := range s.users {
		if !u.IsDeleted {
			t.Users++
		}
	}
	for _, v := range s.videos {
		t.Videos++
		if v.IsPremium {
			t.PremiumVideos++
		}
	}
	t.Categories = len(s.categories)
	for _, a := range s.announcements {
		t.Announcements++
		if a.IsActive {
			t.ActiveAnnouncements++
		}
	}
	for _, p := range s.payments {
		switch p.Status {
		case models.PaymentStatusPending:
			t.PendingPayments++
		case models.PaymentStatusCompleted:
			t.Revenue = t.Revenue.Add(p.Amount)
		}
	}
	return t, nil
}
