package dto

type TranscriptionRequest struct {
	AudioBase64 string `json:"audioBase64" validate:"required"`
	FileType    string `json:"fileType,omitempty" validate:"omitempty,alphanum,max=8"`
}

func (t TranscriptionRequest) Validate() error {
	return GetValidator().Struct(t)
}

type TranscriptionResponse struct {
	Transcription string `json:"transcription"`
}
