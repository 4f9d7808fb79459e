package model

// Quote is the price of one rental window.
type Quote struct {
	DurationHours int64    `json:"duration" bson:"duration_hours"`
	DurationDays  int64    `json:"duration_days,omitempty" bson:"duration_days,omitempty"`
	RateBasis     RateKind `json:"rate_basis" bson:"rate_basis"`
	Rate          Money    `json:"rate" bson:"rate"`
	Total         Money    `json:"total" bson:"total"`
}
