package model

import "time"

// User is one application user row, password omitted.
type User struct {
	UserID   int64     `json:"user_id"`
	UserName string    `json:"user_name"`
	Created  time.Time `json:"created"`
}

// UserSession is the signed-in profile supplying the acting-user id
// attached to every write.
type UserSession struct {
	UserID     int64     `json:"user_id"`
	UserName   string    `json:"user_name"`
	SignedInAt time.Time `json:"signed_in_at"`
}
