package matcher

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName     = "taskpulse.matcher.v1.Matcher"
	matchMethodName = "/" + serviceName + "/Match"
)

// ErrMalformedResponse is returned when a plugin answers with an unexpected shape.
var ErrMalformedResponse = errors.New("malformed matcher response")

type matcherServer interface {
	Match(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// Requests and responses travel as structpb.Struct so no generated code is
// needed:
//
//	request:  {"key": "...", "candidates": [{"id": "...", "content": "..."}]}
//	response: {"id": "...", "found": true}
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*matcherServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Match", Handler: matchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskpulse/matcher/v1/matcher.proto",
}

func matchHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(matcherServer).Match(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: matchMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(matcherServer).Match(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// server adapts a Service to the gRPC handler.
type server struct {
	impl Service
}

func (s *server) Match(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	key, candidates, err := decodeRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	id, found, err := s.impl.Match(ctx, key, candidates)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return structpb.NewStruct(map[string]interface{}{"id": id, "found": found})
}

// grpcClient is the host side of the connection.
type grpcClient struct {
	conn grpc.ClientConnInterface
}

func (c *grpcClient) Match(ctx context.Context, key string, candidates []Candidate) (string, bool, error) {
	req, err := encodeRequest(key, candidates)
	if err != nil {
		return "", false, err
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, matchMethodName, req, resp); err != nil {
		return "", false, fmt.Errorf("matcher rpc: %w", err)
	}
	return decodeResponse(resp)
}

func encodeRequest(key string, candidates []Candidate) (*structpb.Struct, error) {
	list := make([]interface{}, 0, len(candidates))
	for _, c := range candidates {
		list = append(list, map[string]interface{}{"id": c.ID, "content": c.Content})
	}
	return structpb.NewStruct(map[string]interface{}{
		"key":        key,
		"candidates": list,
	})
}

func decodeRequest(req *structpb.Struct) (string, []Candidate, error) {
	fields := req.GetFields()
	key, ok := fields["key"]
	if !ok {
		return "", nil, errors.New("missing key")
	}
	var candidates []Candidate
	for _, v := range fields["candidates"].GetListValue().GetValues() {
		entry := v.GetStructValue().GetFields()
		if entry == nil {
			return "", nil, errors.New("candidate is not an object")
		}
		candidates = append(candidates, Candidate{
			ID:      entry["id"].GetStringValue(),
			Content: entry["content"].GetStringValue(),
		})
	}
	return key.GetStringValue(), candidates, nil
}

func decodeResponse(resp *structpb.Struct) (string, bool, error) {
	fields := resp.GetFields()
	found, ok := fields["found"]
	if !ok {
		return "", false, ErrMalformedResponse
	}
	if _, isBool := found.GetKind().(*structpb.Value_BoolValue); !isBool {
		return "", false, ErrMalformedResponse
	}
	if !found.GetBoolValue() {
		return "", false, nil
	}
	return fields["id"].GetStringValue(), true, nil
}
