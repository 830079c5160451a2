package model

// Store is a venue as seen by the kit engine. Stores sharing a KitGroupID form one inventory pool.
type Store struct {
	ID             string  `db:"id" json:"id"`
	OrganizationID string  `db:"organization_id" json:"organization_id"`
	Name           string  `db:"name" json:"name"`
	ShortName      *string `db:"short_name" json:"short_name"`
	KitGroupID     *string `db:"kit_group_id" json:"kit_group_id"` // Nullable, points at the group representative
	IsActive       bool    `db:"is_active" json:"is_active"`
	DisplayOrder   int     `db:"display_order" json:"display_order"`
}

// Label prefers the short name used on printed route sheets.
func (s Store) Label() string {
	if s.ShortName != nil && *s.ShortName != "" {
		return *s.ShortName
	}
	return s.Name
}

type Scenario struct {
	ID             string `db:"id" json:"id"`
	OrganizationID string `db:"organization_id" json:"organization_id"`
	Title          string `db:"title" json:"title"`
	KitCount       int    `db:"kit_count" json:"kit_count"` // 0 means not kit-managed
}

func (s Scenario) KitManaged() bool {
	return s.KitCount > 0
}
