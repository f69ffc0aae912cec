package dto

// AvatarRequest carries an image as a data URI: data:image/<format>;base64,<payload>.
type AvatarRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
}

type AvatarResponse struct {
	Status    bool   `json:"status"`
	Message   string `json:"message"`
	AvatarURL string `json:"avatar_url"`
}
