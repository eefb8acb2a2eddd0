package entity

// Order is one sort key, named by the entity's JSON field.
type Order struct {
	Field string
	Desc  bool
}

// Page selects a window of a list query. Page is 0-based.
type Page struct {
	Page int
	Size int
	Sort []Order
}

func (p Page) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	return p.Page * p.Size
}
