package enums

type AccessMethod string

const (
	AccessMethodFree         AccessMethod = "FREE"
	AccessMethodSubscription AccessMethod = "SUBSCRIPTION"
	AccessMethodPointPayment AccessMethod = "POINT_PAYMENT"
)
