package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"

	redacted = "<REDACTED>"
)

// form fields and headers that never end up in a message dump
var sensitiveFields = []string{"senha", "password", "__requestverificationtoken"}
var sensitiveHeaders = []string{"cookie", "set-cookie", "authorization"}

// MessageOutput receives a full dump of every request/response pair, it is
// meant for debugging scrapers against the real portal.
type MessageOutput interface {
	Write(id string, contents string)
}

// FilesystemOutput writes each message dump to its own file in a directory.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput clears dir so it only holds the dumps of the current process.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0700)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id+".txt"), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message dump", "id", id, "err", err)
	}
}

type requestInfo struct {
	id    uint64
	start time.Time
}

type requestInfoKey struct{}

type restyHooks struct {
	tel    API
	tracer trace.Tracer
	output MessageOutput
	nextId *atomic.Uint64
}

// InstrumentResty reports every request made by the client through tel and
// opens a span per request. `output` may be nil.
func InstrumentResty(client *resty.Client, tel API, output MessageOutput) {
	h := restyHooks{
		tel:    tel,
		tracer: otel.Tracer("gradewatch/resty"),
		output: output,
		nextId: &atomic.Uint64{},
	}
	client.OnBeforeRequest(h.before)
	client.OnAfterResponse(h.after)
	client.OnError(h.failed)
}

func (h restyHooks) before(_ *resty.Client, req *resty.Request) error {
	ctx, _ := h.tracer.Start(req.Context(), "http "+req.Method)
	info := requestInfo{id: h.nextId.Add(1), start: time.Now()}
	req.SetContext(context.WithValue(ctx, requestInfoKey{}, info))

	h.tel.ReportDebug(report_resty_request, info.id, req.Method, req.URL)
	return nil
}

func (h restyHooks) after(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(
		attribute.String("http.url", res.Request.URL),
		attribute.Int("http.status_code", res.StatusCode()),
	)

	info, ok := ctx.Value(requestInfoKey{}).(requestInfo)
	if !ok {
		return nil
	}
	h.tel.ReportDebug(report_resty_response, info.id, time.Since(info.start).String(), res.Status())

	if h.output != nil && res.Request.RawRequest != nil {
		h.output.Write(strconv.FormatUint(info.id, 10), dumpExchange(res))
	}
	return nil
}

func (h restyHooks) failed(req *resty.Request, err error) {
	ctx := req.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()
	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")

	params := []any{err, req.Method, req.URL}
	if info, ok := ctx.Value(requestInfoKey{}).(requestInfo); ok {
		params = append(params, KV{Key: "elapsed", Value: time.Since(info.start).String()})
	}
	h.tel.ReportBroken(report_resty_response, params...)
}

func writeHeaders(out *strings.Builder, headers http.Header) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		for _, v := range headers[k] {
			if slices.Contains(sensitiveHeaders, strings.ToLower(k)) {
				v = redacted
			}
			fmt.Fprintf(out, "%s: %s\n", k, v)
		}
	}
}

// redactForm hides the values of sensitive fields if body is a url encoded form.
func redactForm(body string) string {
	form, err := url.ParseQuery(body)
	if err != nil || len(form) == 0 {
		return body
	}
	changed := false
	for k := range form {
		if slices.Contains(sensitiveFields, strings.ToLower(k)) {
			form[k] = []string{redacted}
			changed = true
		}
	}
	if !changed {
		return body
	}
	return form.Encode()
}

func requestBody(req *http.Request) string {
	if req.GetBody == nil {
		return "<NO BODY>"
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("<FAILED TO GET BODY: %s>", err.Error())
	}
	defer body.Close()
	buf, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("<FAILED TO READ BODY: %s>", err.Error())
	}
	return redactForm(string(buf))
}

// dumpExchange renders a request and its response, credentials and
// session cookies are redacted.
func dumpExchange(res *resty.Response) string {
	finalUrl := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalUrl = res.RawResponse.Request.URL.String()
	}

	var out strings.Builder
	out.WriteString("---- REQUEST ----\n\n")
	fmt.Fprintf(&out, "%s %s\n\n", res.Request.Method, res.Request.URL)
	writeHeaders(&out, res.Request.RawRequest.Header)
	fmt.Fprintf(&out, "\n%s\n\n", requestBody(res.Request.RawRequest))

	out.WriteString("---- RESPONSE ----\n\n")
	fmt.Fprintf(&out, "%d %s\n\n", res.StatusCode(), finalUrl)
	writeHeaders(&out, res.Header())
	fmt.Fprintf(&out, "\n%s", res.String())
	return out.String()
}
