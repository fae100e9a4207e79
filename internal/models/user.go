package models

import "time"

// User represents a customer account, identified by a verified phone number.
type User struct {
	ID              string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name            string     `json:"name" gorm:"type:varchar(50)"`
	Phone           string     `json:"phone" gorm:"uniqueIndex;type:varchar(15)"`
	Password        string     `json:"-"`
	IsPhoneVerified bool       `json:"isPhoneVerified"`
	OTP             string     `json:"-" gorm:"column:otp;type:varchar(6)"`
	OTPExpiry       *time.Time `json:"-" gorm:"column:otp_expiry"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// OTPMatches reports whether code equals the stored OTP and has not expired at now.
func (u *User) OTPMatches(code string, now time.Time) bool {
	if u.OTP == "" || u.OTP != code || u.OTPExpiry == nil {
		return false
	}
	return now.Before(*u.OTPExpiry)
}

// ClearOTP removes any pending one-time password.
func (u *User) ClearOTP() {
	u.OTP = ""
	u.OTPExpiry = nil
}
