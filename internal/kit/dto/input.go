package dto

import "github.com/fekuna/mystery-kit-service/internal/model"

type SetKitLocationInput struct {
	OrganizationID string
	ScenarioID     string
	KitNumber      int
	StoreID        *string // Nil clears the location
}

type SetAllKitLocationsInput struct {
	OrganizationID string
	ScenarioID     string
	StoreID        *string
}

type UpdateKitConditionInput struct {
	OrganizationID string
	ScenarioID     string
	KitNumber      int
	Condition      model.KitCondition
	Notes          *string
}
