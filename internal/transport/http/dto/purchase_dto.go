package dto

type PurchaseResponse struct {
	Grant          GrantResponse `json:"grant"`
	AlreadyGranted bool          `json:"already_granted"`
	PriceCoins     int64         `json:"price_coins"`
}
