package dto

import "time"

type GrantResponse struct {
	ID           string    `json:"id"`
	VideoID      int64     `json:"video_id"`
	AccessMethod string    `json:"access_method"`
	CreatedAt    time.Time `json:"created_at"`
}

type RemediationResponse struct {
	Kind          string `json:"kind"`
	CoinsRequired int64  `json:"coins_required,omitempty"`
}

type EntitlementResponse struct {
	VideoID     int64                `json:"video_id"`
	Authorized  bool                 `json:"authorized"`
	Reason      string               `json:"reason"`
	Grant       *GrantResponse       `json:"grant,omitempty"`
	Remediation *RemediationResponse `json:"remediation,omitempty"`
}
