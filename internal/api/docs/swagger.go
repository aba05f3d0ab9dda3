package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"INVALID_JSON"`
	Message string `json:"message" example:"Request body is not valid JSON"`
}

// EmptyResponse represents a body without JSON content
type EmptyResponse struct{}

// TelegramChat is the chat of an inbound message
type TelegramChat struct {
	ID int64 `json:"id" example:"123456789"`
}

// TelegramPhotoSize is one size of a photo a message replies to
type TelegramPhotoSize struct {
	FileID       string `json:"file_id" example:"AgACAgIAAxkBAAIB"`
	FileUniqueID string `json:"file_unique_id" example:"AQADx7gxG3k"`
	Width        int    `json:"width" example:"320"`
	Height       int    `json:"height" example:"320"`
}

// TelegramRepliedMessage is the message being replied to
type TelegramRepliedMessage struct {
	MessageID int64               `json:"message_id" example:"41"`
	Photo     []TelegramPhotoSize `json:"photo"`
}

// TelegramMessage is the part of a Telegram message the bot reads
type TelegramMessage struct {
	MessageID      int64                   `json:"message_id" example:"42"`
	Chat           TelegramChat            `json:"chat"`
	Text           string                  `json:"text,omitempty" example:"/getface"`
	ReplyToMessage *TelegramRepliedMessage `json:"reply_to_message,omitempty"`
}

// TelegramUpdate is the webhook payload
type TelegramUpdate struct {
	UpdateID int64           `json:"update_id" example:"10000"`
	Message  TelegramMessage `json:"message"`
}

// StorageBucket names the bucket of a notification record
type StorageBucket struct {
	Name string `json:"name" example:"photos"`
}

// StorageObject names the object of a notification record
type StorageObject struct {
	Key string `json:"key" example:"2024/summer+trip/p1.jpg"`
}

// StorageS3 holds bucket and object of a record
type StorageS3 struct {
	Bucket StorageBucket `json:"bucket"`
	Object StorageObject `json:"object"`
}

// StorageRecord is one object-created notification
type StorageRecord struct {
	EventName string    `json:"eventName" example:"ObjectCreated:Put"`
	S3        StorageS3 `json:"s3"`
}

// StorageEvent is an S3-style notification
type StorageEvent struct {
	Records []StorageRecord `json:"Records"`
}

// DetectResult is the outcome for one record
type DetectResult struct {
	Key       string `json:"key" example:"2024/summer trip/p1.jpg"`
	Faces     int    `json:"faces" example:"2"`
	Published int    `json:"published" example:"2"`
	Error     string `json:"error,omitempty" example:""`
}

// PhotoEventResponse lists per-record outcomes
type PhotoEventResponse struct {
	Results []DetectResult `json:"results"`
}

// HealthResponse is returned by /health and /ready
type HealthResponse struct {
	Status  string            `json:"status" example:"ok"`
	Version string            `json:"version,omitempty" example:"0.1.0"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "facelabel",
		Version:     "v0.1.0",
		Description: "Face extraction pipeline and Telegram labeling bot",
		Host:        "localhost:3000",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /webhook - Telegram updates
		endpoint.New(
			endpoint.POST,
			"/webhook",
			endpoint.WithTags("Bot"),
			endpoint.WithSummary("Receive a Telegram update"),
			endpoint.WithDescription("Handles /start, /getface, /find <name> and replies naming a previously sent face. Any method other than POST is rejected."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("X-Telegram-Bot-Api-Secret-Token", parameter.Header, parameter.WithDescription("Webhook secret, required when configured")),
			),
			endpoint.WithBody(TelegramUpdate{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "200", "Update handled"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_JSON", Message: "Request body is not valid JSON"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing webhook secret"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "METHOD_NOT_ALLOWED", Message: "Only POST method is allowed"}, "405", "Method Not Allowed"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// POST /events/photo - storage notification
		endpoint.New(
			endpoint.POST,
			"/events/photo",
			endpoint.WithTags("Pipeline"),
			endpoint.WithSummary("Detect faces in uploaded photos"),
			endpoint.WithDescription("Runs face detection on every record and queues one crop task per face. A failed record does not affect the others."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(StorageEvent{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(PhotoEventResponse{}, "200", "Records processed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_JSON", Message: "Request body is not valid JSON"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "NO_RECORDS", Message: "Event does not contain records"}, "400", "Bad Request"),
			}),
		),

		// GET /faces/{key} - face crop
		endpoint.New(
			endpoint.GET,
			"/faces/{key}",
			endpoint.WithTags("Images"),
			endpoint.WithSummary("Fetch a face crop"),
			endpoint.WithProduce([]mime.MIME{mime.MIME("image/jpeg")}),
			endpoint.WithParams(
				parameter.StrParam("key", parameter.Path, parameter.WithDescription("Face object key, path-escaped")),
			),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "IMAGE_NOT_FOUND", Message: "Image not found"}, "404", "Not Found"),
			}),
		),

		// GET /originals/{key} - original photo
		endpoint.New(
			endpoint.GET,
			"/originals/{key}",
			endpoint.WithTags("Images"),
			endpoint.WithSummary("Fetch an original photo"),
			endpoint.WithProduce([]mime.MIME{mime.MIME("image/jpeg")}),
			endpoint.WithParams(
				parameter.StrParam("key", parameter.Path, parameter.WithDescription("Photo key, path-escaped")),
			),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "IMAGE_NOT_FOUND", Message: "Image not found"}, "404", "Not Found"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is up"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Checks that both buckets can be listed."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{Status: "ready"}, "200", "Dependencies reachable"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "not_ready"}, "503", "A dependency is unreachable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
