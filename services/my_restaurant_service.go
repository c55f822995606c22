package services

import (
	"context"
	"errors"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/common/logger"
	"github.com/Manish-456/eatsy-backend/models"
	awspkg "github.com/Manish-456/eatsy-backend/pkg/aws"
	"github.com/Manish-456/eatsy-backend/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrMenuItemInUse is returned when an order cart still references the item.
var ErrMenuItemInUse = apperrors.Conflict("Menu item is part of an existing order")

// MyRestaurantService is the owner side of the catalog.
type MyRestaurantService interface {
	Get(ctx context.Context, userID string) (*models.RestaurantWithMenu, error)
	Create(ctx context.Context, userID string, in models.RestaurantInput, image *models.ImageUpload) (*models.RestaurantWithMenu, error)
	Update(ctx context.Context, userID string, in models.RestaurantInput, image *models.ImageUpload) (*models.RestaurantWithMenu, error)
	// RemoveImage reports whether there was an image to remove.
	RemoveImage(ctx context.Context, userID string) (bool, error)
	DeleteMenuItem(ctx context.Context, userID, menuItemID string) error
}

type myRestaurantService struct {
	restaurants repository.RestaurantRepository
	menuItems   repository.MenuItemRepository
	orders      repository.OrderRepository
	media       MediaStore
	notifier
}

func NewMyRestaurantService(
	restaurants repository.RestaurantRepository,
	menuItems repository.MenuItemRepository,
	orders repository.OrderRepository,
	media MediaStore,
	metrics Metrics,
	logger *zap.Logger,
) MyRestaurantService {
	return &myRestaurantService{
		restaurants: restaurants,
		menuItems:   menuItems,
		orders:      orders,
		media:       media,
		notifier:    notifier{metrics: metrics, logger: logger},
	}
}

func (s *myRestaurantService) owned(ctx context.Context, userID string) (*models.Restaurant, error) {
	restaurant, err := s.restaurants.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrRestaurantNotFound
		}
		return nil, apperrors.Internal("Error fetching restaurant", err)
	}
	return restaurant, nil
}

func (s *myRestaurantService) Get(ctx context.Context, userID string) (*models.RestaurantWithMenu, error) {
	restaurant, err := s.owned(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.menuItems.FindByRestaurantID(ctx, restaurant.ID)
	if err != nil {
		return nil, apperrors.Internal("Error fetching restaurant", err)
	}
	return &models.RestaurantWithMenu{Restaurant: restaurant, MenuItems: items}, nil
}

// Create stores the restaurant, its image and its menu. Any failure after
// the first write undoes the earlier writes.
func (s *myRestaurantService) Create(ctx context.Context, userID string, in models.RestaurantInput, image *models.ImageUpload) (*models.RestaurantWithMenu, error) {
	log := logger.For(ctx, s.logger)

	if _, err := s.restaurants.FindByUserID(ctx, userID); err == nil {
		return nil, apperrors.ErrRestaurantExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Error creating restaurant", err)
	}

	uploaded, err := s.upload(ctx, image)
	if err != nil {
		return nil, err
	}

	restaurant := &models.Restaurant{ID: uuid.NewString(), UserID: userID}
	applyInput(restaurant, in)
	if uploaded != nil {
		restaurant.ImageURL, restaurant.PublicID = uploaded.URL, uploaded.PublicID
	}

	if err := s.restaurants.Create(ctx, restaurant); err != nil {
		s.discardImage(ctx, uploaded)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.ErrRestaurantExists
		}
		return nil, apperrors.Internal("Error creating restaurant", err)
	}

	items := make([]models.MenuItem, 0, len(in.MenuItems))
	for _, mi := range in.MenuItems {
		items = append(items, models.MenuItem{
			ID:           uuid.NewString(),
			RestaurantID: restaurant.ID,
			Name:         mi.Name,
			Price:        *mi.Price,
		})
	}

	if err := s.menuItems.InsertMany(ctx, items); err != nil {
		ids := make([]string, len(items))
		for i := range items {
			ids[i] = items[i].ID
		}
		if delErr := s.menuItems.DeleteByIDs(ctx, ids); delErr != nil {
			log.Error("failed to roll back menu items", zap.String("restaurant_id", restaurant.ID), zap.Error(delErr))
		}
		if delErr := s.restaurants.Delete(ctx, restaurant.ID); delErr != nil {
			log.Error("failed to roll back restaurant", zap.String("restaurant_id", restaurant.ID), zap.Error(delErr))
		}
		s.discardImage(ctx, uploaded)
		return nil, apperrors.Internal("Error creating restaurant", err)
	}

	s.count(ctx, awspkg.MetricRestaurantsCreated, nil)
	log.Info("Restaurant created", zap.String("restaurant_id", restaurant.ID), zap.Int("menu_items", len(items)))
	return &models.RestaurantWithMenu{Restaurant: restaurant, MenuItems: items}, nil
}

// Update applies the menu first, then the restaurant document, and only
// deletes the replaced image once both writes succeeded. A failure undoes
// whatever was written before it.
func (s *myRestaurantService) Update(ctx context.Context, userID string, in models.RestaurantInput, image *models.ImageUpload) (*models.RestaurantWithMenu, error) {
	log := logger.For(ctx, s.logger)

	restaurant, err := s.owned(ctx, userID)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.upload(ctx, image)
	if err != nil {
		return nil, err
	}

	undoMenu, err := s.upsertMenu(ctx, restaurant.ID, in.MenuItems)
	if err != nil {
		undoMenu()
		s.discardImage(ctx, uploaded)
		return nil, apperrors.Internal("Failed to update menu items", err)
	}

	updated := *restaurant
	applyInput(&updated, in)
	if uploaded != nil {
		updated.ImageURL, updated.PublicID = uploaded.URL, uploaded.PublicID
	}

	if err := s.restaurants.Update(ctx, &updated); err != nil {
		undoMenu()
		s.discardImage(ctx, uploaded)
		return nil, apperrors.Internal("Failed to update restaurant", err)
	}

	if uploaded != nil && restaurant.PublicID != "" {
		if err := s.media.Delete(ctx, restaurant.PublicID); err != nil {
			log.Warn("failed to delete replaced image", zap.String("public_id", restaurant.PublicID), zap.Error(err))
		}
	}

	items, err := s.menuItems.FindByRestaurantID(ctx, updated.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to update restaurant", err)
	}
	return &models.RestaurantWithMenu{Restaurant: &updated, MenuItems: items}, nil
}

// upsertMenu updates items the restaurant already owns and inserts the rest
// under fresh ids. The returned undo restores the previous prices and names
// and removes inserted items; it is safe to call after a partial failure.
func (s *myRestaurantService) upsertMenu(ctx context.Context, restaurantID string, inputs []models.MenuItemInput) (func(), error) {
	var (
		previous []models.MenuItem
		inserted []string
	)
	undo := func() {
		log := logger.For(ctx, s.logger)
		for _, item := range previous {
			if err := s.menuItems.Update(ctx, item); err != nil {
				log.Error("failed to restore menu item", zap.String("menu_item_id", item.ID), zap.Error(err))
			}
		}
		if len(inserted) == 0 {
			return
		}
		if err := s.menuItems.DeleteByIDs(ctx, inserted); err != nil {
			log.Error("failed to roll back menu items", zap.String("restaurant_id", restaurantID), zap.Error(err))
		}
	}

	current, err := s.menuItems.FindByRestaurantID(ctx, restaurantID)
	if err != nil {
		return undo, err
	}
	owned := make(map[string]models.MenuItem, len(current))
	for _, item := range current {
		owned[item.ID] = item
	}

	for _, mi := range inputs {
		item := models.MenuItem{ID: mi.ID, RestaurantID: restaurantID, Name: mi.Name, Price: *mi.Price}
		if before, ok := owned[item.ID]; ok {
			if err := s.menuItems.Update(ctx, item); err != nil {
				return undo, err
			}
			previous = append(previous, before)
			continue
		}
		// Unknown or foreign ids become new items of this restaurant.
		item.ID = uuid.NewString()
		if err := s.menuItems.InsertMany(ctx, []models.MenuItem{item}); err != nil {
			return undo, err
		}
		inserted = append(inserted, item.ID)
	}
	return undo, nil
}

func (s *myRestaurantService) RemoveImage(ctx context.Context, userID string) (bool, error) {
	restaurant, err := s.owned(ctx, userID)
	if err != nil {
		return false, err
	}
	if !restaurant.HasImage() {
		return false, nil
	}

	if err := s.media.Delete(ctx, restaurant.PublicID); err != nil {
		return false, apperrors.Gateway("Error deleting image", err)
	}
	if err := s.restaurants.ClearImage(ctx, restaurant.ID); err != nil {
		return false, apperrors.Internal("Error deleting image", err)
	}
	return true, nil
}

// DeleteMenuItem refuses to delete an item any stored order still refers to.
func (s *myRestaurantService) DeleteMenuItem(ctx context.Context, userID, menuItemID string) error {
	restaurant, err := s.owned(ctx, userID)
	if err != nil {
		return err
	}

	if _, err := s.menuItems.FindOne(ctx, menuItemID, restaurant.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrMenuItemNotFound
		}
		return apperrors.Internal("Error deleting menu item", err)
	}

	inUse, err := s.orders.ExistsWithMenuItem(ctx, menuItemID)
	if err != nil {
		return apperrors.Internal("Error deleting menu item", err)
	}
	if inUse {
		return ErrMenuItemInUse
	}

	if err := s.menuItems.Delete(ctx, menuItemID, restaurant.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrMenuItemNotFound
		}
		return apperrors.Internal("Error deleting menu item", err)
	}
	return nil
}

func (s *myRestaurantService) upload(ctx context.Context, image *models.ImageUpload) (*awspkg.UploadedImage, error) {
	if image == nil {
		return nil, nil
	}
	if err := ValidateImage(image.ContentType, int64(len(image.Data))); err != nil {
		return nil, err
	}
	uploaded, err := s.media.Upload(ctx, image.Data, image.ContentType)
	if err != nil {
		return nil, apperrors.Gateway("Error uploading image", err)
	}
	s.count(ctx, awspkg.MetricImagesUploaded, nil)
	return uploaded, nil
}

func (s *myRestaurantService) discardImage(ctx context.Context, img *awspkg.UploadedImage) {
	if img == nil {
		return
	}
	if err := s.media.Delete(ctx, img.PublicID); err != nil {
		logger.For(ctx, s.logger).Error("failed to delete orphaned image", zap.String("public_id", img.PublicID), zap.Error(err))
	}
}

func applyInput(r *models.Restaurant, in models.RestaurantInput) {
	r.Name = in.Name
	r.City = in.City
	r.Country = in.Country
	r.Description = in.Description
	r.DeliveryPrice = *in.DeliveryPrice
	r.EstimatedDeliveryTime = *in.EstimatedDeliveryTime
	r.Cuisines = in.Cuisines
}
