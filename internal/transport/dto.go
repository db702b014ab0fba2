package transport

import "github.com/avoskov/retail_pos/internal/models"

type LoginRequest struct {
	Username   string `json:"username"`
	Credential string `json:"credential"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type CreateProductRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	ImageRef string  `json:"image_ref"`
	Barcode  string  `json:"barcode"`
}

type PatchProductRequest struct {
	Name     *string  `json:"name"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
	ImageRef *string  `json:"image_ref"`
	Barcode  *string  `json:"barcode"`
}

type CreateUserRequest struct {
	Username   string `json:"username"`
	Credential string `json:"credential"`
	Role       string `json:"role"`
}

type PatchUserRequest struct {
	Username   *string `json:"username"`
	Credential *string `json:"credential"`
	Role       *string `json:"role"`
}

type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
}

type SetCartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Items []models.SaleItem `json:"items"`
	Total float64           `json:"total"`
}

type CheckoutRequest struct {
	Discount float64 `json:"discount"`
}

type UpdateSettingsRequest struct {
	StoreName         *string                 `json:"store_name"`
	Theme             *models.ThemeColors     `json:"theme"`
	NotificationSound *string                 `json:"notification_sound"`
	PaymentMethods    *[]models.PaymentMethod `json:"payment_methods"`
}
