package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// CreateSessionRequest opens an enroll or verify session
type CreateSessionRequest struct {
	Mode       string `json:"mode" example:"enroll"`
	ExternalID string `json:"external_id" example:"user-123"`
	Replace    bool   `json:"replace" example:"false"`
}

// ChallengeSessionData is the liveness progress of a session
type ChallengeSessionData struct {
	Sequence   []string `json:"sequence" example:"blink,turn_left,turn_right"`
	Index      int      `json:"index" example:"1"`
	Status     string   `json:"status" example:"awaiting_challenge"`
	Current    string   `json:"current,omitempty" example:"turn_left"`
	HeldFrames int      `json:"held_frames" example:"4"`
}

// FaceBoxData is a face rectangle in frame pixels
type FaceBoxData struct {
	X      float64 `json:"x" example:"210"`
	Y      float64 `json:"y" example:"120"`
	Width  float64 `json:"width" example:"220"`
	Height float64 `json:"height" example:"260"`
}

// OutcomeData is the final result of a session
type OutcomeData struct {
	Kind   string     `json:"kind" example:"matched"`
	Match  *MatchData `json:"match,omitempty"`
	Reason string     `json:"reason,omitempty" example:""`
}

// MatchData is a scored comparison of two embeddings
type MatchData struct {
	Distance   float64 `json:"distance" example:"0.18"`
	Similarity float64 `json:"similarity" example:"0.82"`
	Match      bool    `json:"match" example:"true"`
}

// SessionStateResponse is the snapshot of a session
type SessionStateResponse struct {
	ID               string               `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Mode             string               `json:"mode" example:"enroll"`
	Phase            string               `json:"phase" example:"liveness"`
	ExternalID       string               `json:"external_id" example:"user-123"`
	Liveness         ChallengeSessionData `json:"liveness"`
	StableCount      int                  `json:"stable_count" example:"12"`
	StableTarget     int                  `json:"stable_target" example:"90"`
	SamplesCollected int                  `json:"samples_collected" example:"1"`
	SamplesRequired  int                  `json:"samples_required" example:"3"`
	AwaitingSample   bool                 `json:"awaiting_sample" example:"false"`
	Outcome          *OutcomeData         `json:"outcome,omitempty"`
	CreatedAt        string               `json:"created_at" example:"2026-01-01T00:00:00Z"`
}

// PointData is one landmark
type PointData struct {
	X float64 `json:"x" example:"312.5"`
	Y float64 `json:"y" example:"201.0"`
}

// FrameRequest is one detector result
type FrameRequest struct {
	Seq         uint64       `json:"seq" example:"42"`
	Landmarks   []PointData  `json:"landmarks"`
	Box         *FaceBoxData `json:"box,omitempty"`
	FrameWidth  float64      `json:"frame_width" example:"640"`
	FrameHeight float64      `json:"frame_height" example:"480"`
}

// StepResponse reports what one frame did
type StepResponse struct {
	Phase          string               `json:"phase" example:"capture"`
	Liveness       ChallengeSessionData `json:"liveness"`
	Advanced       bool                 `json:"advanced" example:"false"`
	Completed      string               `json:"completed,omitempty" example:"blink"`
	Ignored        bool                 `json:"ignored" example:"false"`
	StableCount    int                  `json:"stable_count" example:"0"`
	Capture        *FaceBoxData         `json:"capture,omitempty"`
	AwaitingSample bool                 `json:"awaiting_sample" example:"true"`
}

// SampleResponse reports capture progress
type SampleResponse struct {
	Collected int          `json:"collected" example:"3"`
	Required  int          `json:"required" example:"3"`
	Outcome   *OutcomeData `json:"outcome,omitempty"`
}

// CompareRequest carries two embeddings
type CompareRequest struct {
	Live   []float64 `json:"live" example:"0.12,0.08,0.99"`
	Stored []float64 `json:"stored" example:"0.10,0.09,0.99"`
}

// VerificationData is one recorded session outcome
type VerificationData struct {
	ID             string   `json:"id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	SessionID      string   `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ExternalID     string   `json:"external_id" example:"user-123"`
	Outcome        string   `json:"outcome" example:"matched"`
	Distance       *float64 `json:"distance,omitempty" example:"0.18"`
	Matched        bool     `json:"matched" example:"true"`
	LivenessPassed bool     `json:"liveness_passed" example:"true"`
	Challenges     []string `json:"challenges" example:"blink,turn_left"`
	LatencyMs      int64    `json:"latency_ms" example:"8450"`
	CreatedAt      string   `json:"created_at" example:"2026-01-01T00:00:00Z"`
}

// VerificationsResponse lists recorded outcomes
type VerificationsResponse struct {
	ExternalID    string             `json:"external_id" example:"user-123"`
	Verifications []VerificationData `json:"verifications"`
}

// OutcomeStatsData aggregates one outcome kind
type OutcomeStatsData struct {
	Outcome        string   `json:"outcome" example:"matched"`
	Count          int64    `json:"count" example:"42"`
	LivenessPassed int64    `json:"liveness_passed" example:"42"`
	AvgLatencyMs   float64  `json:"avg_latency_ms" example:"8120.5"`
	P95LatencyMs   float64  `json:"p95_latency_ms" example:"11800"`
	AvgDistance    *float64 `json:"avg_distance,omitempty" example:"0.17"`
}

// StatsResponse summarizes recorded sessions over a window
type StatsResponse struct {
	Since            string             `json:"since" example:"2026-01-01T00:00:00Z"`
	Total            int64              `json:"total" example:"120"`
	LivenessPassRate float64            `json:"liveness_pass_rate" example:"0.91"`
	MatchRate        float64            `json:"match_rate" example:"0.97"`
	Outcomes         []OutcomeStatsData `json:"outcomes"`
}

// FailureRequest reports a client-side detector failure
type FailureRequest struct {
	Reason string `json:"reason" example:"landmark model crashed"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
	Details string `json:"details,omitempty" example:"external_id failed \"required\""`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

var (
	errValidation = response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity")
	errNotFound   = response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Session not found"}, "404", "Not Found")
	errExpired    = response.New(ErrorResponse{Code: "SESSION_EXPIRED", Message: "Session expired"}, "410", "Gone")
	errFinished   = response.New(ErrorResponse{Code: "SESSION_FINISHED", Message: "Session already finished"}, "409", "Conflict")
	errRateLimit  = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests")
	errInternal   = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
)

func sessionIDParam() *parameter.Parameter {
	return parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session ID"))
}

func externalIDParam() *parameter.Parameter {
	return parameter.StrParam("external_id", parameter.Path, parameter.WithDescription("Subject identifier"))
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Vivo Liveness API",
		Version:     "v1.0.0",
		Description: "Active liveness challenges, guided face capture, enrollment and 1:1 verification",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// Sessions

		endpoint.New(
			endpoint.POST,
			"/sessions",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Open a session"),
			endpoint.WithDescription("Starts an enroll or verify session. The challenge sequence is fixed at creation. Send an Idempotency-Key header to make retries safe."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(CreateSessionRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionStateResponse{}, "201", "Session created"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				response.New(ErrorResponse{Code: "TEMPLATE_NOT_FOUND", Message: "No template enrolled for external_id"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "TEMPLATE_ALREADY_EXISTS", Message: "A template is already enrolled for external_id"}, "409", "Conflict"),
				errRateLimit,
				errInternal,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/sessions/{id}",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Get session state"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(sessionIDParam()),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionStateResponse{}, "200", "Session state"),
			}),
			endpoint.WithErrors([]response.Response{errNotFound, errInternal}),
		),

		endpoint.New(
			endpoint.POST,
			"/sessions/{id}/frames",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Push a detector frame"),
			endpoint.WithDescription("Landmarks drive the liveness challenges; once they pass, the face box drives the capture gate. Omit both when no face was found."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(sessionIDParam()),
			endpoint.WithBody(FrameRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StepResponse{}, "200", "Frame applied"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				errNotFound,
				errExpired,
				errFinished,
				errRateLimit,
				errInternal,
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/sessions/{id}/samples",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Submit the captured still"),
			endpoint.WithDescription("Uploads the photo taken when capture fired. Form field \"image\" carries a JPEG, PNG or WebP up to 10MB. The first detected face is embedded; enroll sessions average the samples, verify sessions compare against the stored template."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(sessionIDParam()),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SampleResponse{}, "200", "Sample accepted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "SAMPLE_NOT_EXPECTED", Message: "No capture is pending"}, "409", "Conflict"),
				errNotFound,
				errExpired,
				response.New(ErrorResponse{Code: "UPSTREAM_FAILURE", Message: "Face provider failed"}, "502", "Bad Gateway"),
				errInternal,
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/sessions/{id}/failure",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Report a detector failure"),
			endpoint.WithDescription("The client's landmark detector or model failed. The session ends as upstream_failed and is recorded."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(sessionIDParam()),
			endpoint.WithBody(FailureRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionStateResponse{}, "200", "Session failed"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errNotFound, errExpired, errFinished, errInternal}),
		),

		endpoint.New(
			endpoint.POST,
			"/sessions/{id}/stop",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Stop a session"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(sessionIDParam()),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionStateResponse{}, "200", "Session stopped"),
			}),
			endpoint.WithErrors([]response.Response{errNotFound, errFinished, errInternal}),
		),

		endpoint.New(
			endpoint.POST,
			"/sessions/{id}/reset",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Discard captured samples"),
			endpoint.WithDescription("Clears samples and the stability counter. A stopped session resumes where liveness left off."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(sessionIDParam()),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionStateResponse{}, "200", "Session reset"),
			}),
			endpoint.WithErrors([]response.Response{errNotFound, errFinished, errInternal}),
		),

		endpoint.New(
			endpoint.GET,
			"/sessions/{id}/ws",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Session event stream"),
			endpoint.WithDescription("WebSocket upgrade. Server pushes session events; clients may send {\"type\":\"frame\",\"frame\":{...}}, {\"type\":\"error\",\"reason\":\"...\"}, stop, reset or ping messages."),
			endpoint.WithParams(sessionIDParam()),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "101", "Switching Protocols"),
			}),
			endpoint.WithErrors([]response.Response{
				errNotFound,
				response.New(ErrorResponse{Code: "HTTP_ERROR", Message: "Upgrade Required"}, "426", "Upgrade Required"),
			}),
		),

		// Templates

		endpoint.New(
			endpoint.POST,
			"/templates/compare",
			endpoint.WithTags("Templates"),
			endpoint.WithSummary("Compare two embeddings"),
			endpoint.WithDescription("Scores two embeddings under the deployment's match policy"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(CompareRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MatchData{}, "200", "Comparison result"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				response.New(ErrorResponse{Code: "INPUT_CONTRACT_VIOLATION", Message: "Embedding lengths differ"}, "422", "Unprocessable Entity"),
				errInternal,
			}),
		),

		endpoint.New(
			endpoint.DELETE,
			"/templates/{external_id}",
			endpoint.WithTags("Templates"),
			endpoint.WithSummary("Delete an enrolled template"),
			endpoint.WithParams(externalIDParam()),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Template deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "TEMPLATE_NOT_FOUND", Message: "Template not found"}, "404", "Not Found"),
				errInternal,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/templates/{external_id}/verifications",
			endpoint.WithTags("Templates"),
			endpoint.WithSummary("List recorded session outcomes"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				externalIDParam(),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("1-200, default 50")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerificationsResponse{}, "200", "Recorded outcomes, newest first"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errInternal}),
		),

		// Stats
		endpoint.New(
			endpoint.GET,
			"/stats",
			endpoint.WithTags("Stats"),
			endpoint.WithSummary("Outcome statistics"),
			endpoint.WithDescription("Counts, pass rates and latency of sessions recorded within the window."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("window", parameter.Query, parameter.WithDescription("Go duration up to 2160h, default 24h")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatsResponse{}, "200", "Summary"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errInternal}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
