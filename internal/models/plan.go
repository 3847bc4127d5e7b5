package models

import "time"

// Plan file kinds. Diet plans attach to a purchase, service plans to a
// service, resources are global.
const (
	PlanFileKindDiet        = "diet"
	PlanFileKindServicePlan = "service_plan"
	PlanFileKindResource    = "resource"
)

type PlanFile struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	PurchaseID *int64    `json:"purchase_id"`
	ServiceID  *int64    `json:"service_id"`
	UploaderID int64     `json:"uploader_id"`
	Title      string    `json:"title"`
	FileURL    string    `json:"file_url"`
	FileSize   int64     `json:"file_size"`
	CreatedAt  time.Time `json:"created_at"`
}
