package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/models"
	"github.com/Manish-456/eatsy-backend/services"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// maxFormSize bounds a whole restaurant form: the image plus its text fields.
const maxFormSize = services.MaxImageSize + 1<<20

var (
	indexedCuisine  = regexp.MustCompile(`^cuisines\[(\d+)\]$`)
	indexedMenuItem = regexp.MustCompile(`^menuItems\[(\d+)\]\[(_id|name|price)\]$`)
)

// bindRestaurantInput reads a restaurant from either a JSON body or a
// multipart form with an optional imageFile part, then validates it.
func bindRestaurantInput(c *gin.Context) (models.RestaurantInput, *models.ImageUpload, error) {
	var in models.RestaurantInput

	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		if err := c.ShouldBindJSON(&in); err != nil {
			return in, nil, apperrors.Validation("Invalid request", validationDetails(err))
		}
		return in, nil, nil
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFormSize)
	if err := c.Request.ParseMultipartForm(maxFormSize); err != nil {
		return in, nil, apperrors.Validation("Invalid form data", err.Error())
	}
	form := c.Request.MultipartForm

	in, err := restaurantInputFromForm(form.Value)
	if err != nil {
		return in, nil, err
	}
	if err := binding.Validator.ValidateStruct(&in); err != nil {
		return in, nil, apperrors.Validation("Invalid request", validationDetails(err))
	}

	image, err := imageFromForm(form)
	if err != nil {
		return in, nil, err
	}
	return in, image, nil
}

func restaurantInputFromForm(values map[string][]string) (models.RestaurantInput, error) {
	first := func(key string) string {
		if v := values[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	in := models.RestaurantInput{
		Name:        first("name"),
		City:        first("city"),
		Country:     first("country"),
		Description: first("description"),
	}

	var details []string
	if v := first("deliveryPrice"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			details = append(details, "deliveryPrice must be an integer amount")
		} else {
			in.DeliveryPrice = &n
		}
	}
	if v := first("estimatedDeliveryTime"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, "estimatedDeliveryTime must be an integer")
		} else {
			in.EstimatedDeliveryTime = &n
		}
	}

	in.Cuisines = formCuisines(values)

	items, err := formMenuItems(values)
	if err != nil {
		details = append(details, err.Error())
	}
	in.MenuItems = items

	if len(details) > 0 {
		return in, apperrors.Validation("Invalid request", details)
	}
	return in, nil
}

// formCuisines accepts repeated "cuisines" keys, "cuisines[]", "cuisines[N]"
// and a single JSON array.
func formCuisines(values map[string][]string) []string {
	var out []string
	for _, key := range []string{"cuisines", "cuisines[]"} {
		for _, v := range values[key] {
			v = strings.TrimSpace(v)
			if strings.HasPrefix(v, "[") {
				var arr []string
				if err := json.Unmarshal([]byte(v), &arr); err == nil {
					out = append(out, arr...)
					continue
				}
			}
			out = append(out, v)
		}
	}

	indexed := map[int]string{}
	for key, v := range values {
		m := indexedCuisine.FindStringSubmatch(key)
		if m == nil || len(v) == 0 {
			continue
		}
		i, _ := strconv.Atoi(m[1])
		indexed[i] = strings.TrimSpace(v[0])
	}
	for _, i := range sortedKeys(indexed) {
		out = append(out, indexed[i])
	}
	return out
}

// formMenuItems accepts a JSON array under "menuItems" or the bracketed
// "menuItems[N][field]" keys.
func formMenuItems(values map[string][]string) ([]models.MenuItemInput, error) {
	if raw := values["menuItems"]; len(raw) > 0 && strings.TrimSpace(raw[0]) != "" {
		var items []models.MenuItemInput
		if err := json.Unmarshal([]byte(raw[0]), &items); err != nil {
			return nil, fmt.Errorf("menuItems must be a JSON array")
		}
		return items, nil
	}

	indexed := map[int]*models.MenuItemInput{}
	for key, v := range values {
		m := indexedMenuItem.FindStringSubmatch(key)
		if m == nil || len(v) == 0 {
			continue
		}
		i, _ := strconv.Atoi(m[1])
		item, ok := indexed[i]
		if !ok {
			item = &models.MenuItemInput{}
			indexed[i] = item
		}
		value := strings.TrimSpace(v[0])
		switch m[2] {
		case "_id":
			item.ID = value
		case "name":
			item.Name = value
		case "price":
			if value == "" {
				continue
			}
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("menuItems[%d].price must be an integer amount", i)
			}
			item.Price = &n
		}
	}

	items := make([]models.MenuItemInput, 0, len(indexed))
	for _, i := range sortedKeys(indexed) {
		items = append(items, *indexed[i])
	}
	return items, nil
}

func imageFromForm(form *multipart.Form) (*models.ImageUpload, error) {
	files := form.File["imageFile"]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]
	if fh.Size > services.MaxImageSize {
		return nil, apperrors.Validation("Invalid image size", fmt.Sprintf("image must be at most %d bytes", services.MaxImageSize))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.Validation("Invalid image", err.Error())
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxImageSize+1))
	if err != nil {
		return nil, apperrors.Validation("Invalid image", err.Error())
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &models.ImageUpload{Data: data, ContentType: contentType}, nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
