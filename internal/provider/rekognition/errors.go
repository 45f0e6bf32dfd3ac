package rekognition

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

const (
	errCodeAccessDenied     = "AccessDeniedException"
	errCodeInvalidParameter = "InvalidParameterException"
	errCodeInvalidImage     = "InvalidImageFormatException"
	errCodeImageTooLarge    = "ImageTooLargeException"
	errCodeThrottling       = "ThrottlingException"
	errCodeThroughput       = "ProvisionedThroughputExceededException"
)

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrThrottled indicates Rekognition rejected the call for rate reasons
	ErrThrottled = errors.New("rekognition request throttled")
)

// translateError maps Rekognition API errors onto the domain taxonomy.
// Image problems are the caller's fault; everything else is upstream.
func translateError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return domain.ErrUpstreamFailure.WithError(fmt.Errorf("rekognition: %w", err))
	}

	switch apiErr.ErrorCode() {
	case errCodeInvalidImage, errCodeImageTooLarge, errCodeInvalidParameter:
		return domain.ErrInvalidImage.WithError(fmt.Errorf("rekognition: %s", apiErr.ErrorMessage()))
	case errCodeAccessDenied:
		return domain.ErrUpstreamFailure.WithError(ErrInvalidCredentials)
	case errCodeThrottling, errCodeThroughput:
		return domain.ErrUpstreamFailure.WithError(ErrThrottled)
	default:
		return domain.ErrUpstreamFailure.WithError(fmt.Errorf("rekognition: %w", err))
	}
}
