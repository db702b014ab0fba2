package models

import "time"

const (
	RoleAdmin          = "admin"
	RoleEmployee       = "employee"
	RoleEmployeeReturn = "employee_return"
)

const (
	SaleStatusActive   = "active"
	SaleStatusReturned = "returned"
)

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	ImageRef  string    `json:"image_ref,omitempty"`
	Barcode   string    `json:"barcode,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Credential is stored and compared verbatim, matching the persisted slot and
// backup formats.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Credential string `json:"credential"`
	Role       string `json:"role"`
}

// SaleItem snapshots name and unit price at the moment of sale, so later
// product edits never change historical records.
type SaleItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type Sale struct {
	ID             string     `json:"id"`
	Items          []SaleItem `json:"items"`
	OriginalTotal  float64    `json:"original_total"`
	Discount       float64    `json:"discount"`
	Total          float64    `json:"total"`
	SoldAt         time.Time  `json:"sold_at"`
	SellerID       string     `json:"seller_id"`
	SellerUsername string     `json:"seller_username"`
	Status         string     `json:"status"`
	ReturnedAt     *time.Time `json:"returned_at,omitempty"`
}

// ThemeColors holds HSL triples ("222 47% 11%"); the core treats them as
// opaque strings.
type ThemeColors struct {
	Primary    string `json:"primary"`
	Background string `json:"background"`
	Accent     string `json:"accent"`
}

type PaymentMethod struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

type AppSettings struct {
	StoreName         string          `json:"store_name"`
	Theme             ThemeColors     `json:"theme"`
	NotificationSound string          `json:"notification_sound,omitempty"`
	PaymentMethods    []PaymentMethod `json:"payment_methods,omitempty"`
}

type Session struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// Backup is the export/import document: all four persisted collections in one
// JSON file.
type Backup struct {
	Users    []User      `json:"users"`
	Products []Product   `json:"products"`
	Sales    []Sale      `json:"sales"`
	Settings AppSettings `json:"settings"`
}
