package server

import (
	"errors"
	"time"
)

type adminSession struct {
	AdminID string
	Email   string
}

var (
	errNoAdminSession = errors.New("no valid admin session")
	errAdminNotFound  = errors.New("admin not found")
)

const (
	adminCookieName = "admin_session"
	adminSessionTTL = 7 * 24 * time.Hour
)
