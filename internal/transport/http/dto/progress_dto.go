package dto

type ProgressCheckpointRequest struct {
	Seconds int `json:"seconds"`
}

type ProgressCheckpointResponse struct {
	OK bool `json:"ok"`
}

type ProgressPositionResponse struct {
	VideoID int64 `json:"video_id"`
	Seconds int   `json:"seconds"`
}
