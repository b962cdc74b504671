// File: pkg/logger/echo_logger.go
package logger

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apperrors "github.com/alderburg/Teste-sub001/pkg/errors"
)

// NewEchoRequestLogger는 Echo 서버를 위한 Request Logger를 생성합니다.
// /health, /metrics 요청은 기록하지 않습니다.
func NewEchoRequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health" || c.Request().URL.Path == "/metrics"
		},
		HandleError:  true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogRequestID: true,
		LogUserAgent: true,
		LogStatus:    true,
		LogError:     true,
		LogHeaders:   []string{"Authorization", "X-Flow-Id"},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request.remote_ip", v.RemoteIP),
				zap.String("request.method", v.Method),
				zap.String("request.path", v.URIPath),
				zap.String("request.route", v.RoutePath),
				zap.String("request.request_id", v.RequestID),
				zap.String("request.user_agent", v.UserAgent),
				zap.Int("response.status", v.Status),
				zap.Duration("response.latency", v.Latency),
			}
			if len(v.Headers) > 0 {
				fields = append(fields, zap.Any("request.headers", maskHeaders(v.Headers)))
			}

			switch {
			case v.Error != nil:
				logger.Error("Request failed", append(fields, zap.Error(v.Error))...)
			case v.Status >= 500:
				logger.Error("Server error", fields...)
			case v.Status >= 400:
				logger.Warn("Client error", fields...)
			default:
				logger.Info("Request completed", fields...)
			}
			return nil
		},
	})
}

// maskHeaders는 Authorization 헤더의 토큰 일부만 남깁니다
func maskHeaders(headers map[string][]string) map[string]string {
	masked := make(map[string]string, len(headers))
	for k, values := range headers {
		if len(values) == 0 {
			continue
		}
		val := values[0]
		if strings.EqualFold(k, "Authorization") {
			if len(val) > 15 {
				val = val[:10] + "..." + val[len(val)-5:]
			} else {
				val = "[MASKED]"
			}
		}
		masked[k] = val
	}
	return masked
}

// WithEchoLogger는 Echo 내장 Logger를 zap으로 교체하고
// 에러 응답을 {error:{message, code}} 형식으로 통일합니다.
func WithEchoLogger(e *echo.Echo, logger *zap.Logger) {
	e.Logger = NewEchoZapLogger(logger)

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		he, ok := err.(*echo.HTTPError)
		if !ok {
			he = apperrors.ToHTTPError(err)
		}

		if he.Code >= http.StatusInternalServerError {
			logger.Error("HTTP error",
				zap.Error(err),
				zap.Int("status", he.Code),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
			)
		}

		if c.Response().Committed {
			return
		}

		body := he.Message
		if msg, isString := he.Message.(string); isString {
			// 라우터 에러(404/405 등)는 상태 코드에서 에러 코드를 유추합니다
			body = apperrors.Envelope{Error: apperrors.EnvelopeBody{
				Message: msg,
				Code:    apperrors.CodeOf(apperrors.FromHTTPError(he)),
			}}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, body)
		}
		if err != nil {
			logger.Error("Failed to send error response", zap.Error(err))
		}
	}
}

// EchoZapLogger는 echo.Logger 인터페이스를 구현한 zap 로거 래퍼입니다.
type EchoZapLogger struct {
	Logger *zap.Logger
	sugar  *zap.SugaredLogger
	prefix string
}

// NewEchoZapLogger는 Echo의 Logger 인터페이스를 구현한 zap 로거 래퍼를 생성합니다.
func NewEchoZapLogger(logger *zap.Logger) *EchoZapLogger {
	return &EchoZapLogger{Logger: logger, sugar: logger.Sugar()}
}

func (l *EchoZapLogger) Output() io.Writer { return &zapWriter{logger: l.Logger} }

// SetOutput은 zap에서 무시됩니다
func (l *EchoZapLogger) SetOutput(io.Writer) {}

func (l *EchoZapLogger) Prefix() string { return l.prefix }

func (l *EchoZapLogger) SetPrefix(p string) { l.prefix = p }

// Level은 zap 코어의 레벨을 Echo 레벨로 변환합니다
func (l *EchoZapLogger) Level() log.Lvl {
	switch {
	case l.Logger.Core().Enabled(zapcore.DebugLevel):
		return log.DEBUG
	case l.Logger.Core().Enabled(zapcore.InfoLevel):
		return log.INFO
	case l.Logger.Core().Enabled(zapcore.WarnLevel):
		return log.WARN
	case l.Logger.Core().Enabled(zapcore.ErrorLevel):
		return log.ERROR
	default:
		return log.OFF
	}
}

// SetLevel은 zap에서 무시됩니다 (레벨은 설정 파일에서 결정)
func (l *EchoZapLogger) SetLevel(log.Lvl) {}

func (l *EchoZapLogger) SetHeader(string) {}

func (l *EchoZapLogger) Print(i ...interface{})                    { l.sugar.Info(i...) }
func (l *EchoZapLogger) Printf(format string, args ...interface{}) { l.sugar.Infof(format, args...) }
func (l *EchoZapLogger) Printj(j log.JSON)                         { l.Logger.Info("echo", jsonFields(j)...) }
func (l *EchoZapLogger) Debug(i ...interface{})                    { l.sugar.Debug(i...) }
func (l *EchoZapLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *EchoZapLogger) Debugj(j log.JSON)                         { l.Logger.Debug("echo", jsonFields(j)...) }
func (l *EchoZapLogger) Info(i ...interface{})                     { l.sugar.Info(i...) }
func (l *EchoZapLogger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *EchoZapLogger) Infoj(j log.JSON)                          { l.Logger.Info("echo", jsonFields(j)...) }
func (l *EchoZapLogger) Warn(i ...interface{})                     { l.sugar.Warn(i...) }
func (l *EchoZapLogger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *EchoZapLogger) Warnj(j log.JSON)                          { l.Logger.Warn("echo", jsonFields(j)...) }
func (l *EchoZapLogger) Error(i ...interface{})                    { l.sugar.Error(i...) }
func (l *EchoZapLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *EchoZapLogger) Errorj(j log.JSON)                         { l.Logger.Error("echo", jsonFields(j)...) }
func (l *EchoZapLogger) Fatal(i ...interface{})                    { l.sugar.Fatal(i...) }
func (l *EchoZapLogger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }
func (l *EchoZapLogger) Fatalj(j log.JSON)                         { l.Logger.Fatal("echo", jsonFields(j)...) }
func (l *EchoZapLogger) Panic(i ...interface{})                    { l.sugar.Panic(i...) }
func (l *EchoZapLogger) Panicf(format string, args ...interface{}) { l.sugar.Panicf(format, args...) }
func (l *EchoZapLogger) Panicj(j log.JSON)                         { l.Logger.Panic("echo", jsonFields(j)...) }

func jsonFields(j log.JSON) []zap.Field {
	fields := make([]zap.Field, 0, len(j))
	for k, v := range j {
		fields = append(fields, zap.Any(k, v))
	}
	return fields
}

// zapWriter는 Echo가 직접 쓰는 출력을 zap Info 로그로 전달합니다
type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Write(p []byte) (int, error) {
	w.logger.Info(strings.TrimSpace(fmt.Sprint(string(p))))
	return len(p), nil
}
