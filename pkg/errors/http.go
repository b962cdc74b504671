package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope는 {error:{message, code}} 형태의 에러 응답 본문입니다
type Envelope struct {
	Error EnvelopeBody `json:"error"`
}

// EnvelopeBody는 에러 응답의 내용입니다
type EnvelopeBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ToHTTPStatus는 에러 코드를 HTTP 상태 코드로 변환합니다
func ToHTTPStatus(code string) int {
	httpStatus, _ := GetCodeMapping(code)
	return httpStatus
}

// ToHTTPError는 에러를 Echo HTTP 에러로 변환합니다.
// 응답 본문은 Envelope 형식을 사용하며 내부 에러 상세는 노출하지 않습니다.
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		httpStatus := ToHTTPStatus(appErr.Code())
		return echo.NewHTTPError(httpStatus, Envelope{Error: EnvelopeBody{
			Message: appErr.Message(),
			Code:    appErr.Code(),
		}})
	}

	// Echo 에러인 경우 그대로 반환
	if echoErr, ok := err.(*echo.HTTPError); ok {
		return echoErr
	}

	// 기본 에러는 500으로 처리
	return echo.NewHTTPError(http.StatusInternalServerError, Envelope{Error: EnvelopeBody{
		Message: http.StatusText(http.StatusInternalServerError),
		Code:    ErrInternal,
	}})
}

// FromHTTPError는 Echo HTTP 에러를 내부 에러로 변환합니다
func FromHTTPError(err error) error {
	if err == nil {
		return nil
	}

	// 이미 AppError인 경우 그대로 반환
	var appErr *AppError
	if As(err, &appErr) {
		return err
	}

	// Echo 에러 처리
	if echoErr, ok := err.(*echo.HTTPError); ok {
		code := httpStatusToCode(echoErr.Code)
		var msg string
		if m, ok := echoErr.Message.(string); ok {
			msg = m
		} else {
			msg = "HTTP error"
		}
		return NewAppError(code, msg, nil)
	}

	// 기본 에러는 Internal로 처리하며 원인 메시지는 노출하지 않습니다
	return NewAppError(ErrInternal, http.StatusText(http.StatusInternalServerError), err)
}

// httpStatusToCode는 HTTP 상태 코드를 내부 에러 코드로 변환합니다
func httpStatusToCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrInvalidArgument
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	case http.StatusGatewayTimeout:
		return ErrTimeout
	case http.StatusNotImplemented:
		return ErrNotImplemented
	case http.StatusPreconditionFailed:
		return ErrFailedPrecondition
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	default:
		return ErrInternal
	}
}
