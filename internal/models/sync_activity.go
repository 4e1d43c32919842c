package models

import "time"

type ActivityType string

const (
	ActivityPullChanges    ActivityType = "PULL_CHANGES"
	ActivityRestaurantData ActivityType = "RESTAURANT_DATA"
	ActivityOrderStatus    ActivityType = "ORDER_STATUS"
)

type ActivityDirection string

const (
	DirectionIn  ActivityDirection = "IN"
	DirectionOut ActivityDirection = "OUT"
)

// SyncActivity is a feed entry. It lives in the activity store, not in SQL.
type SyncActivity struct {
	ID        string            `json:"id"`
	Type      ActivityType      `json:"type"`
	Direction ActivityDirection `json:"direction"`
	Success   bool              `json:"success"`
	Timestamp time.Time         `json:"timestamp"`
}
