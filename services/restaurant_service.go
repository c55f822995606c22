package services

import (
	"context"
	"errors"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/models"
	"github.com/Manish-456/eatsy-backend/repository"
	"go.uber.org/zap"
)

// ErrNoRestaurantsInCity is returned together with an empty result page.
var ErrNoRestaurantsInCity = apperrors.NotFound("No restaurants found in this city")

// RestaurantService serves the public catalog.
type RestaurantService interface {
	Get(ctx context.Context, id string) (*models.RestaurantWithMenu, error)
	Search(ctx context.Context, params models.SearchParams) (*models.SearchResult, error)
}

type restaurantService struct {
	restaurants repository.RestaurantRepository
	menuItems   repository.MenuItemRepository
	logger      *zap.Logger
}

func NewRestaurantService(restaurants repository.RestaurantRepository, menuItems repository.MenuItemRepository, logger *zap.Logger) RestaurantService {
	return &restaurantService{restaurants: restaurants, menuItems: menuItems, logger: logger}
}

func (s *restaurantService) Get(ctx context.Context, id string) (*models.RestaurantWithMenu, error) {
	restaurant, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrRestaurantNotFound
		}
		return nil, apperrors.Internal("Error fetching restaurant", err)
	}

	items, err := s.menuItems.FindByRestaurantID(ctx, restaurant.ID)
	if err != nil {
		return nil, apperrors.Internal("Error fetching restaurant", err)
	}
	return &models.RestaurantWithMenu{Restaurant: restaurant, MenuItems: items}, nil
}

// Search returns one page of restaurants in a city. When the city has no
// restaurants at all the empty page is returned along with
// ErrNoRestaurantsInCity.
func (s *restaurantService) Search(ctx context.Context, params models.SearchParams) (*models.SearchResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}

	inCity, err := s.restaurants.CountByCity(ctx, params.City)
	if err != nil {
		return nil, apperrors.Internal("Error searching restaurants", err)
	}
	if inCity == 0 {
		return &models.SearchResult{
			Data:       []models.Restaurant{},
			Pagination: models.Pagination{Total: 0, Page: 1, Pages: 1},
		}, ErrNoRestaurantsInCity
	}

	data, total, err := s.restaurants.Search(ctx, params)
	if err != nil {
		return nil, apperrors.Internal("Error searching restaurants", err)
	}

	return &models.SearchResult{
		Data: data,
		Pagination: models.Pagination{
			Total: total,
			Page:  params.Page,
			Pages: pageCount(total, repository.SearchPageSize),
		},
	}, nil
}

func pageCount(total int64, size int) int {
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		return 1
	}
	return pages
}
