package dto

// Request bodies accepted by the HTTP handler.

type SetKitLocationRequest struct {
	StoreID *string `json:"store_id"`
}

type UpdateKitConditionRequest struct {
	Condition string  `json:"condition" validate:"required,oneof=good damaged missing needs_check"`
	Notes     *string `json:"notes" validate:"omitempty,max=1000"`
}

type SetKitCountRequest struct {
	KitCount *int `json:"kit_count" validate:"required,gte=0,lte=99"`
}

// ResizeResult reports what a kit count change did to the location rows.
type ResizeResult struct {
	ScenarioID string `json:"scenario_id"`
	KitCount   int    `json:"kit_count"`
	Added      int    `json:"added"`
	Removed    int    `json:"removed"`
}
