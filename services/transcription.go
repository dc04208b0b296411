package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/zevi-app/zevi_api/dto"
	"github.com/zevi-app/zevi_api/shared"
)

// TranscriptionService converts recorded practice audio to text through the
// Whisper API. Clips arrive base64-encoded from the device and are archived
// to object storage after a successful transcription.
type TranscriptionService struct {
	appContext.DefaultService

	httpClient *http.Client
	apiKey     string
	baseURL    string

	minioSvc *MinioService
}

const TRANSCRIPTION_SVC = "transcription_svc"

const transcriptionTimeout = 60 * time.Second

func (svc TranscriptionService) Id() string {
	return TRANSCRIPTION_SVC
}

func (svc *TranscriptionService) Configure(ctx *appContext.Context) error {
	svc.httpClient = &http.Client{
		Timeout: transcriptionTimeout,
	}
	svc.apiKey = os.Getenv("OPENAI_API_KEY")
	svc.baseURL = envOr("OPENAI_BASE_URL", "https://api.openai.com/v1")

	if minioSvc, ok := ctx.Service(MINIO_SVC).(*MinioService); ok {
		svc.minioSvc = minioSvc
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *TranscriptionService) Start() error {
	if svc.apiKey == "" {
		log.Warn("OPENAI_API_KEY is not set; transcription requests will fail")
	}
	return nil
}

// SetEndpoint points the service at a stub Whisper endpoint. Test hook.
func (svc *TranscriptionService) SetEndpoint(baseURL, apiKey string) {
	svc.baseURL = baseURL
	svc.apiKey = apiKey
}

func (svc *TranscriptionService) TranscribeAudio(ctx context.Context, identity shared.Identity, req dto.TranscriptionRequest) (*dto.TranscriptionResponse, error) {
	if strings.TrimSpace(req.AudioBase64) == "" {
		return nil, shared.NewBadRequestError(errors.New("empty audio payload"), "Audio base64 is required")
	}

	fileType := req.FileType
	if fileType == "" {
		fileType = "m4a"
	}

	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return nil, shared.NewBadRequestError(err, "Audio payload is not valid base64")
	}

	if svc.apiKey == "" {
		return nil, shared.NewInternalError(errors.New("no api key configured"), "OPENAI_API_KEY is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, transcriptionTimeout)
	defer cancel()

	transcription, err := svc.callWhisper(ctx, audio, fileType)
	if err != nil {
		recordTranscription("error")
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, shared.NewTimeoutError(err, fmt.Sprintf("Request timeout after %dms", transcriptionTimeout.Milliseconds()))
		}
		return nil, shared.NewTransientError(err, "Failed to transcribe audio. Please check your input and try again.")
	}

	recordTranscription("success")
	svc.archiveRecording(identity, audio, fileType)

	return &dto.TranscriptionResponse{Transcription: transcription}, nil
}

func (svc *TranscriptionService) callWhisper(ctx context.Context, audio []byte, fileType string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "recording."+fileType)
	if err != nil {
		return "", err
	}
	if _, err = part.Write(audio); err != nil {
		return "", err
	}

	_ = writer.WriteField("model", "whisper-1")
	_ = writer.WriteField("language", "en")
	_ = writer.WriteField("response_format", "json")

	if err = writer.Close(); err != nil {
		return "", err
	}

	url := strings.TrimSuffix(svc.baseURL, "/") + "/audio/transcriptions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+svc.apiKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := svc.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	if result.Text == "" {
		return "", errors.New("no transcription returned from API")
	}

	return strings.TrimSpace(result.Text), nil
}

// archiveRecording keeps a copy of the clip in object storage. Best effort:
// losing the archive never fails the transcription the user is waiting on.
func (svc *TranscriptionService) archiveRecording(identity shared.Identity, audio []byte, fileType string) {
	if svc.minioSvc == nil || svc.minioSvc.client == nil {
		return
	}

	objectName := fmt.Sprintf("recordings/%s/%s.%s", identity.UserID, uuid.New().String(), fileType)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err := svc.minioSvc.UploadRecording(ctx, objectName, bytes.NewReader(audio), int64(len(audio)), "audio/"+fileType)
		if err != nil {
			log.WithError(err).WithField("object", objectName).Warn("Failed to archive recording")
		}
	}()
}
