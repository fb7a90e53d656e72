package dto

import "time"

type ContextCacheInfoResponse struct {
	Name           string    `json:"name"`
	Model          string    `json:"model"`
	DisplayName    string    `json:"display_name"`
	CreateTime     time.Time `json:"create_time"`
	UpdateTime     time.Time `json:"update_time"`
	ExpireTime     time.Time `json:"expire_time"`
	SourceDocument string    `json:"source_document,omitempty"`
}
