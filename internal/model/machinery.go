package model

// MachineryItem is one equipment row of the machinery section.
type MachineryItem struct {
	ID                   int64  `json:"id"`
	HolderID             int64  `json:"holder_id"`
	EquipmentName        string `json:"equipment_name"`
	HasItem              string `json:"has_item"`
	QuantityNew          int    `json:"quantity_new"`
	QuantityUsed         int    `json:"quantity_used"`
	QuantityOutOfService int    `json:"quantity_out_of_service"`
	Source               string `json:"source"`
}
