package validators

import (
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/stellar/customer-intake-backend/internal/data"
)

const DefaultPageLimit = 20

type QueryValidator struct {
	*Validator
	DefaultSortField  data.SortField
	DefaultSortOrder  data.SortOrder
	AllowedSortFields []data.SortField
}

// NewCustomerQueryValidator returns the validator for customer listings, newest first by default.
func NewCustomerQueryValidator() *QueryValidator {
	return &QueryValidator{
		Validator:        NewValidator(),
		DefaultSortField: data.SortFieldCreatedAt,
		DefaultSortOrder: data.SortOrderDESC,
		AllowedSortFields: []data.SortField{
			data.SortFieldFirstName,
			data.SortFieldLastName,
			data.SortFieldCreatedAt,
			data.SortFieldUpdatedAt,
		},
	}
}

// ParseParametersFromRequest parses query parameters from the request and returns a QueryParams struct. Listings are
// only paginated when page or page_limit is present.
func (qv *QueryValidator) ParseParametersFromRequest(r *http.Request) *data.QueryParams {
	query := r.URL.Query()

	var page, pageLimit int
	if query.Has("page") || query.Has("page_limit") {
		page = qv.validateAndGetIntParams(r, "page", 1)
		pageLimit = qv.validateAndGetIntParams(r, "page_limit", DefaultPageLimit)
	}

	sortBy := data.SortField(query.Get("sort"))
	if sortBy == "" {
		sortBy = qv.DefaultSortField
	} else if !slices.Contains(qv.AllowedSortFields, sortBy) {
		qv.AddError("sort", "invalid sort field name")
	}

	sortOrder := data.SortOrder(strings.ToUpper(query.Get("direction")))
	if sortOrder == "" {
		sortOrder = qv.DefaultSortOrder
	} else if !sortOrder.IsValid() {
		qv.AddError("direction", "invalid sort order. valid values are 'asc' and 'desc'")
	}

	if qv.HasErrors() {
		return &data.QueryParams{}
	}

	return &data.QueryParams{
		Query:     strings.TrimSpace(query.Get("q")),
		Page:      page,
		PageLimit: pageLimit,
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}
}

// validateAndGetIntParams validates the query parameter and returns the value as a positive integer.
func (qv *QueryValidator) validateAndGetIntParams(r *http.Request, param string, defaultValue int) int {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		qv.CheckError(err, param, "parameter must be an integer")
		return defaultValue
	}
	qv.Check(intValue > 0, param, "parameter must be a positive integer")

	return intValue
}
