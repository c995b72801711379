package model

import "time"

type LandUse struct {
	ID               int64     `json:"id"`
	HolderID         *int64    `json:"holder_id"`
	TotalAreaAcres   float64   `json:"total_area_acres"`
	YearsAgriculture int       `json:"years_agriculture"`
	MainPurpose      string    `json:"main_purpose"`
	NumParcels       int       `json:"num_parcels"`
	Location         string    `json:"location"`
	CropMethods      []string  `json:"crop_methods"`
	Parcels          []Parcel  `json:"parcels"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Parcel struct {
	ID             int64   `json:"id"`
	LandUseID      int64   `json:"land_use_id"`
	ParcelNo       int     `json:"parcel_no"`
	TotalAcres     float64 `json:"total_acres"`
	DevelopedAcres float64 `json:"developed_acres"`
	Tenure         string  `json:"tenure"`
	UseOfLand      string  `json:"use_of_land"`
	IrrigatedArea  float64 `json:"irrigated_area"`
	LandClearing   string  `json:"land_clearing"`
}

// LandUseStats summarizes all land use records.
type LandUseStats struct {
	Count          int     `json:"count"`
	TotalArea      float64 `json:"total_area"`
	AverageParcels float64 `json:"average_parcels"`
	MaxArea        float64 `json:"max_area"`
	MinArea        float64 `json:"min_area"`
}
