package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	WatchServiceName = "gradewatch.v1.WatchService"

	WatchServiceRunProcedure = "/gradewatch.v1.WatchService/Run"
)

// WatchServiceClient triggers runs on a remote gradewatch server.
type WatchServiceClient struct {
	run *connect.Client[emptypb.Empty, structpb.Struct]
}

func NewWatchServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) WatchServiceClient {
	return WatchServiceClient{
		run: connect.NewClient[emptypb.Empty, structpb.Struct](
			httpClient,
			baseURL+WatchServiceRunProcedure,
			opts...,
		),
	}
}

func (c WatchServiceClient) Run(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	return c.run.CallUnary(ctx, req)
}

// NewWatchServiceHandler returns the path the service should be mounted on
// and its handler.
func NewWatchServiceHandler(svc Service, opts ...connect.HandlerOption) (string, http.Handler) {
	runHandler := connect.NewUnaryHandler(
		WatchServiceRunProcedure,
		svc.Run,
		opts...,
	)
	mux := http.NewServeMux()
	mux.Handle(WatchServiceRunProcedure, runHandler)
	return "/" + WatchServiceName + "/", mux
}
