package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"gradewatch/internal/components/assert"
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/config"
	"net/http"
)

const (
	SuccessMessage = "Grades processed successfully."

	report_handler_invalid = "handler.invalid-config"
	report_handler_failed  = "handler.failed"
)

// Response is the result of an invocation, Body is a json encoded string.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func jsonString(s string) string {
	buf, err := json.Marshal(s)
	if err != nil {
		// strings always marshal
		panic(err)
	}
	return string(buf)
}

// FromError maps the outcome of a run to a response.
func FromError(err error) Response {
	if err == nil {
		return Response{StatusCode: http.StatusOK, Body: jsonString(SuccessMessage)}
	}
	if config.IsConfigurationError(err) {
		return Response{StatusCode: http.StatusBadRequest, Body: jsonString(err.Error())}
	}
	return Response{
		StatusCode: http.StatusInternalServerError,
		Body:       jsonString(fmt.Sprintf("Error: %s", err.Error())),
	}
}

// RunFunc performs a whole run, from reading the configuration to notifying.
type RunFunc func(ctx context.Context) error

type Handler struct {
	run RunFunc
	tel telemetry.API
}

func New(run RunFunc, tel telemetry.API) Handler {
	assert.NotNil(run)
	assert.NotNil(tel)
	return Handler{
		run: run,
		tel: telemetry.NewScopedAPI("handler", tel),
	}
}

// Handle runs once per invocation, event is accepted for compatibility with
// scheduled triggers and ignored.
func (h Handler) Handle(ctx context.Context, event any) (res Response) {
	h.tel.ReportDebug("handler started")

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			h.tel.ReportBroken(report_handler_failed, err)
			res = FromError(err)
		}
	}()

	err := h.run(ctx)
	res = FromError(err)
	switch res.StatusCode {
	case http.StatusBadRequest:
		h.tel.ReportWarning(report_handler_invalid, err)
	case http.StatusInternalServerError:
		h.tel.ReportBroken(report_handler_failed, err)
	}
	return res
}
