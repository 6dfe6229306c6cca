package service

import (
	"context"
	"errors"
	"strings"

	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/shopspring/decimal"
)

// HomePage is what the landing page renders
type HomePage struct {
	FreeVideos     []*models.Video
	PremiumVideos  []*models.Video
	Categories     []*models.Category
	ActiveAccesses []*models.Access
}

// Home lists the catalog split by tier. userID 0 means anonymous.
func (s *Service) Home(ctx context.Context, userID int64) (*HomePage, error) {
	videos, err := s.store.ListVideos(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	page := &HomePage{Categories: categories}
	page.FreeVideos, page.PremiumVideos = models.SplitByTier(videos)

	if userID != 0 {
		page.ActiveAccesses, err = s.store.ListValidAccesses(ctx, userID, s.Now())
		if err != nil {
			return nil, err
		}
	}
	return page, nil
}

// Search matches title or description case-insensitively
func (s *Service) Search(ctx context.Context, query string) ([]*models.Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.store.ListVideos(ctx)
	}
	return s.store.SearchVideos(ctx, query)
}

// ListVideos returns every video, newest first
func (s *Service) ListVideos(ctx context.Context) ([]*models.Video, error) {
	return s.store.ListVideos(ctx)
}

// GetVideo loads a video by id
func (s *Service) GetVideo(ctx context.Context, id int64) (*models.Video, error) {
	return s.store.GetVideo(ctx, id)
}

// VideoInput is the admin form for a video
type VideoInput struct {
	Title        string
	EmbedURL     string
	ThumbnailURL string
	Description  string
	Price        decimal.Decimal
	IsPremium    bool
	CategoryID   *int64
}

func (s *Service) validateVideo(ctx context.Context, in *VideoInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.EmbedURL = strings.TrimSpace(in.EmbedURL)
	in.ThumbnailURL = strings.TrimSpace(in.ThumbnailURL)
	in.Description = strings.TrimSpace(in.Description)

	if in.Title == "" || in.EmbedURL == "" {
		return invalid("Judul dan URL embed video wajib diisi!")
	}
	if tooLong(in.Title, models.MaxTitleLength) {
		return invalid("Judul video maksimal 200 karakter!")
	}
	if in.Price.IsNegative() {
		return invalid("Harga video tidak boleh negatif!")
	}
	if !models.AmountFits(in.Price) {
		return invalid("Harga video terlalu besar!")
	}
	if in.CategoryID != nil {
		if _, err := s.store.GetCategory(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return invalid("Kategori tidak ditemukan!")
			}
			return err
		}
	}
	return nil
}

// CreateVideo adds a video to the catalog
func (s *Service) CreateVideo(ctx context.Context, in VideoInput) (*models.Video, error) {
	if err := s.validateVideo(ctx, &in); err != nil {
		return nil, err
	}

	video := &models.Video{
		Title:        in.Title,
		EmbedURL:     in.EmbedURL,
		ThumbnailURL: in.ThumbnailURL,
		Description:  in.Description,
		Price:        in.Price,
		IsPremium:    in.IsPremium,
		CategoryID:   in.CategoryID,
		CreatedAt:    s.Now(),
	}
	if err := s.store.CreateVideo(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

// UpdateVideo replaces the editable fields of a video
func (s *Service) UpdateVideo(ctx context.Context, id int64, in VideoInput) (*models.Video, error) {
	video, err := s.store.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateVideo(ctx, &in); err != nil {
		return nil, err
	}

	video.Title = in.Title
	video.EmbedURL = in.EmbedURL
	video.ThumbnailURL = in.ThumbnailURL
	video.Description = in.Description
	video.Price = in.Price
	video.IsPremium = in.IsPremium
	video.CategoryID = in.CategoryID
	if err := s.store.UpdateVideo(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

// DeleteVideo removes a video and every access granted to it
func (s *Service) DeleteVideo(ctx context.Context, id int64) error {
	return s.store.DeleteVideo(ctx, id)
}

// Categories

// ListCategories returns categories by name with their video counts
func (s *Service) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.store.ListCategories(ctx)
}

// GetCategory loads a category by id
func (s *Service) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func validateCategory(name, description string) (string, string, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return "", "", invalid("Nama kategori wajib diisi!")
	}
	if tooLong(name, models.MaxCategoryNameLength) {
		return "", "", invalid("Nama kategori maksimal 50 karakter!")
	}
	if tooLong(description, models.MaxCategoryDescriptionLength) {
		return "", "", invalid("Deskripsi kategori maksimal 200 karakter!")
	}
	return name, description, nil
}

// CreateCategory adds a category with a unique name
func (s *Service) CreateCategory(ctx context.Context, name, description string) (*models.Category, error) {
	name, description, err := validateCategory(name, description)
	if err != nil {
		return nil, err
	}

	category := &models.Category{Name: name, Description: description, CreatedAt: s.Now()}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrCategoryExists) {
			return nil, invalid("Kategori sudah ada!")
		}
		return nil, err
	}
	return category, nil
}

// UpdateCategory renames a category, keeping names unique
func (s *Service) UpdateCategory(ctx context.Context, id int64, name, description string) (*models.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	name, description, err = validateCategory(name, description)
	if err != nil {
		return nil, err
	}

	category.Name = name
	category.Description = description
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrCategoryExists) {
			return nil, invalid("Nama kategori sudah digunakan!")
		}
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes an unused category. A category still referenced by
// videos fails with *store.CategoryInUseError.
func (s *Service) DeleteCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return category, err
	}
	return category, nil
}

// CategoryStats counts videos per category by tier
func (s *Service) CategoryStats(ctx context.Context) ([]*models.CategoryStat, error) {
	return s.store.CategoryStats(ctx)
}
