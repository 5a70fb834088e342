package transfer

import "encoding/json"

// VKResponse is the generic envelope of api.vk.com method calls.
type VKResponse struct {
	Response json.RawMessage `json:"response"`
	Error    *VKError        `json:"error"`
}

type VKError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

type VKUploadServer struct {
	UploadURL string `json:"upload_url"`
}

type VKWallPhotoUpload struct {
	Server int    `json:"server"`
	Photo  string `json:"photo"`
	Hash   string `json:"hash"`
}

type VKSavedPhoto struct {
	ID      int64 `json:"id"`
	OwnerID int64 `json:"owner_id"`
}

type VKSavedVideo struct {
	VideoID   int64  `json:"video_id"`
	OwnerID   int64  `json:"owner_id"`
	UploadURL string `json:"upload_url"`
}

type VKStoryUpload struct {
	UploadResult string `json:"upload_result"`
}

type VKSavedStory struct {
	ID      int64 `json:"id"`
	OwnerID int64 `json:"owner_id"`
}

type VKSavedStories struct {
	Count int            `json:"count"`
	Items []VKSavedStory `json:"items"`
}
