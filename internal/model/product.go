package model

import "time"

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Unit      string    `json:"unit"`
	Price     float64   `json:"price"`
	Barcode   string    `json:"barcode,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
