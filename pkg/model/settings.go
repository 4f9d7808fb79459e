package model

import "time"

// Settings is the operator-editable configuration shared by every client.
type Settings struct {
	CompanyName         string    `json:"companyName" validate:"required,max=200"`
	Email               string    `json:"email,omitempty" validate:"omitempty,email"`
	Timezone            string    `json:"timezone" validate:"max=64"`
	Currency            string    `json:"currency" validate:"required,len=3,uppercase"`
	Theme               string    `json:"theme" validate:"omitempty,oneof=light dark"`
	EmailNotifications  bool      `json:"emailNotifications"`
	InAppNotifications  bool      `json:"inAppNotifications"`
	SMSNotifications    bool      `json:"smsNotifications"`
	AutoBackup          bool      `json:"autoBackup"`
	MaintenanceMode     bool      `json:"maintenanceMode"`
	PaymentGateway      string    `json:"paymentGateway" validate:"omitempty,max=50"`
	PaymentMode         string    `json:"paymentMode" validate:"omitempty,oneof=test live"`
	BankTransferEnabled bool      `json:"bankTransferEnabled"`
	BankName            string    `json:"bankName,omitempty" validate:"max=200"`
	BankAccountNumber   string    `json:"bankAccountNumber,omitempty" validate:"max=64"`
	BankSwiftCode       string    `json:"bankSwiftCode,omitempty" validate:"max=16"`
	LastUpdated         time.Time `json:"lastUpdated"`
}

// DefaultSettings returns the settings a fresh installation starts with.
func DefaultSettings(currency string) Settings {
	if currency == "" {
		currency = "USD"
	}
	return Settings{
		CompanyName:        "RSLAF Machine Rentals",
		Email:              "admin@rslaf.com",
		Timezone:           "UTC-08:00",
		Currency:           currency,
		Theme:              "light",
		EmailNotifications: true,
		InAppNotifications: true,
		AutoBackup:         true,
		PaymentGateway:     "none",
		PaymentMode:        "test",
	}
}
