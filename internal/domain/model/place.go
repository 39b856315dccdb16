package model

// Place is the business location that owns catalog subscriptions. The core
// only reads it for display names; place CRUD lives outside this service.
type Place struct {
	ID   string
	Name string
}

// Subscriber is the customer who purchased a subscription. Read-only here,
// same as Place.
type Subscriber struct {
	ID   string
	Name string
}
