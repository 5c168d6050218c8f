package grpc

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/utils"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// quiet methods are polled by orchestrators and not logged on success.
func quiet(fullMethod string) bool {
	return fullMethod == "/grpc.health.v1.Health/Check" ||
		fullMethod == "/grpc.health.v1.Health/Watch"
}

// ToStatus maps an ErrCode onto the closest grpc status.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var ec *code.ErrCode
	if !errors.As(err, &ec) {
		return status.Error(codes.Unknown, err.Error())
	}
	c := codes.Internal
	switch ec.HTTPStatus() {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		c = codes.InvalidArgument
	case http.StatusUnauthorized:
		c = codes.Unauthenticated
	case http.StatusNotFound:
		c = codes.NotFound
	case http.StatusConflict:
		c = codes.Aborted
	case http.StatusBadGateway:
		c = codes.Unavailable
	}
	return status.Error(c, ec.Error())
}

func UnaryLogInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		if perr := utils.SafelyRun(func() { resp, err = handler(ctx, req) }); perr != nil {
			logger.Errorf(ctx, "gRPC %s panic: %+v", info.FullMethod, perr)
			return nil, status.Error(codes.Internal, "internal error")
		}
		err = ToStatus(err)
		switch {
		case err != nil:
			logger.Warnf(ctx, "gRPC %s cost: %s err: %v", info.FullMethod, time.Since(start), err)
		case !quiet(info.FullMethod):
			logger.Infof(ctx, "gRPC %s cost: %s", info.FullMethod, time.Since(start))
		}
		return resp, err
	}
}

func StreamLogInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		ctx := ss.Context()
		start := time.Now()
		if perr := utils.SafelyRun(func() { err = handler(srv, ss) }); perr != nil {
			logger.Errorf(ctx, "gRPC stream %s panic: %+v", info.FullMethod, perr)
			return status.Error(codes.Internal, "internal error")
		}
		err = ToStatus(err)
		if err != nil {
			logger.Warnf(ctx, "gRPC stream %s cost: %s err: %v", info.FullMethod, time.Since(start), err)
		}
		return err
	}
}
