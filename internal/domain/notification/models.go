package notification

import "time"

// DeviceToken is one registered push target.
type DeviceToken struct {
	Token     string    `json:"token"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}
