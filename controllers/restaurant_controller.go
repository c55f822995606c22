package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/models"
	"github.com/Manish-456/eatsy-backend/repository"
	"github.com/Manish-456/eatsy-backend/services"
	"github.com/gin-gonic/gin"
)

type RestaurantController struct {
	restaurants services.RestaurantService
}

func NewRestaurantController(restaurants services.RestaurantService) *RestaurantController {
	return &RestaurantController{restaurants: restaurants}
}

func (rc *RestaurantController) GetRestaurant(c *gin.Context) {
	result, err := rc.restaurants.Get(c.Request.Context(), c.Param("restaurantId"))
	if err != nil {
		apperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SearchRestaurants answers 404 with an empty page when the city has no
// restaurants at all.
func (rc *RestaurantController) SearchRestaurants(c *gin.Context) {
	params := searchParams(c)

	result, err := rc.restaurants.Search(c.Request.Context(), params)
	if errors.Is(err, services.ErrNoRestaurantsInCity) && result != nil {
		c.JSON(http.StatusNotFound, result)
		return
	}
	if err != nil {
		apperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func searchParams(c *gin.Context) models.SearchParams {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	page = min(page, repository.MaxSearchPage)

	var cuisines []string
	for _, cuisine := range strings.Split(c.Query("selectedCuisines"), ",") {
		if cuisine = strings.TrimSpace(cuisine); cuisine != "" {
			cuisines = append(cuisines, cuisine)
		}
	}

	return models.SearchParams{
		City:             c.Param("city"),
		SearchQuery:      strings.TrimSpace(c.Query("searchQuery")),
		SelectedCuisines: cuisines,
		SortOption:       c.DefaultQuery("sortOption", "lastUpdated"),
		Page:             page,
	}
}
