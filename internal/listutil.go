package internal

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gadget-inventory-api/internal/models"
	"gadget-inventory-api/internal/repository"

	"github.com/go-chi/chi/v5"
)

// listParams holds the paging query parameters. Zero means "use the default";
// the repository applies defaults and the 100-row cap.
type listParams struct {
	page  int
	limit int
}

// parseListParams reads page and limit. Non-numeric or negative values are
// rejected rather than silently replaced.
func parseListParams(r *http.Request) (listParams, error) {
	values := r.URL.Query()
	var p listParams
	var err error
	if p.page, err = queryInt(values.Get("page"), "page"); err != nil {
		return p, err
	}
	if p.limit, err = queryInt(values.Get("limit"), "limit"); err != nil {
		return p, err
	}
	return p, nil
}

func queryInt(raw, name string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", repository.ErrInvalidArgument, name)
	}
	return v, nil
}

// parseAssetFilter maps the search query string onto an AssetFilter.
// "q" is accepted as an alias of search_term.
func parseAssetFilter(r *http.Request) models.AssetFilter {
	values := r.URL.Query()
	term := strings.TrimSpace(values.Get("search_term"))
	if term == "" {
		term = strings.TrimSpace(values.Get("q"))
	}
	return models.AssetFilter{
		SearchTerm:     term,
		Category:       strings.TrimSpace(values.Get("category")),
		Status:         strings.TrimSpace(values.Get("status")),
		UserUnit:       strings.TrimSpace(values.Get("user_unit")),
		UserLocation:   strings.TrimSpace(values.Get("user_location")),
		EquipmentBrand: strings.TrimSpace(values.Get("equipment_brand")),
	}
}

// parseUserFilter maps the GET /users query string onto a UserFilter.
func parseUserFilter(r *http.Request, p listParams) models.UserFilter {
	values := r.URL.Query()
	search := strings.TrimSpace(values.Get("search"))
	if search == "" {
		search = strings.TrimSpace(values.Get("q"))
	}
	return models.UserFilter{
		Search:   search,
		UserType: strings.TrimSpace(values.Get("user_type")),
		Unit:     strings.TrimSpace(values.Get("unit")),
		Location: strings.TrimSpace(values.Get("location")),
		Page:     p.page,
		Limit:    p.limit,
	}
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", repository.ErrInvalidArgument, raw)
	}
	return id, nil
}
