package domain

type SortField string

const (
	SortUpdatedAt SortField = "updatedAt"
	SortDate      SortField = "sortDate"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// RowOrder is the single-field ordering applied to a rows query.
type RowOrder struct {
	Field     SortField
	Direction Direction
}

var DefaultRowOrder = RowOrder{Field: SortUpdatedAt, Direction: Desc}

// ParseRowOrder maps the client sort names to an order. Unknown names fall
// back to the default.
func ParseRowOrder(name string) RowOrder {
	switch name {
	case "date_desc":
		return RowOrder{Field: SortDate, Direction: Desc}
	case "date_asc":
		return RowOrder{Field: SortDate, Direction: Asc}
	default:
		return DefaultRowOrder
	}
}

func (o RowOrder) Name() string {
	if o.Field == SortDate {
		if o.Direction == Asc {
			return "date_asc"
		}
		return "date_desc"
	}
	return "updated_desc"
}
