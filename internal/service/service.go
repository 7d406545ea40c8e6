package service

import (
	"context"
	"gradewatch/internal/components/assert"
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/handler"
	"sync"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const report_service_response = "service.response"

// Service exposes the handler as a Connect endpoint, runs are serialized so
// overlapping triggers never scrape at the same time.
type Service struct {
	handler handler.Handler
	mutex   *sync.Mutex
	tel     telemetry.API
}

func NewService(h handler.Handler, tel telemetry.API) Service {
	assert.NotNil(tel)
	return Service{
		handler: h,
		mutex:   &sync.Mutex{},
		tel:     telemetry.NewScopedAPI("service", tel),
	}
}

func (s Service) Run(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	res := s.handler.Handle(ctx, req.Msg)

	out, err := structpb.NewStruct(map[string]any{
		"status_code": res.StatusCode,
		"body":        res.Body,
	})
	if err != nil {
		s.tel.ReportBroken(report_service_response, err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}
