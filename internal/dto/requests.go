package dto

type CreateIntentRequest struct {
	Amount        int64  `json:"amount" binding:"required"`
	OrderID       string `json:"order_id"`
	CustomerEmail string `json:"customer_email"`
}
