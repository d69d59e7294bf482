package data

type QueryParams struct {
	Query     string
	Page      int
	PageLimit int
	SortBy    SortField
	SortOrder SortOrder
}

type SortOrder string

const (
	SortOrderASC  SortOrder = "ASC"
	SortOrderDESC SortOrder = "DESC"
)

func (so SortOrder) IsValid() bool {
	return so == SortOrderASC || so == SortOrderDESC
}

type SortField string

const (
	SortFieldFirstName SortField = "first_name"
	SortFieldLastName  SortField = "last_name"
	SortFieldCreatedAt SortField = "created_at"
	SortFieldUpdatedAt SortField = "updated_at"
)

func (sf SortField) IsValid() bool {
	switch sf {
	case SortFieldFirstName, SortFieldLastName, SortFieldCreatedAt, SortFieldUpdatedAt:
		return true
	default:
		return false
	}
}
