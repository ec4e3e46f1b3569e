package dto

import "time"

// LoginRequest is the member login form
type LoginRequest struct {
	Name     string `json:"name" form:"username" binding:"required,membername"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginResponse is returned after a successful login. The token is also set as a cookie.
type LoginResponse struct {
	MemberID   string    `json:"memberId"`
	MemberName string    `json:"memberName"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// CreateSubmissionRequest records a submission.
// Media may be sent as a list or as one newline or comma separated string.
type CreateSubmissionRequest struct {
	MemberName string   `json:"memberName" form:"studentName" binding:"required,membername"`
	Media      []string `json:"media" form:"media" binding:"omitempty,dive,mediaurl"`
	MediaText  string   `json:"mediaText" form:"files"`
	Date       string   `json:"date" form:"date" binding:"omitempty,calendardate"`
}

// UploadResponse lists the public URLs of stored files
type UploadResponse struct {
	URLs []string `json:"urls"`
}
