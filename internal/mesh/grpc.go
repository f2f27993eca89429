package mesh

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region methods

// gRPC methods of the aka.mesh.v1.SymbolicMesh service.
const (
	ServiceName        = "aka.mesh.v1.SymbolicMesh"
	ReceiveMethod      = "/" + ServiceName + "/Receive"
	ReceiveBatchMethod = "/" + ServiceName + "/ReceiveBatch"
)

// #endregion methods

// #region client-struct

// GRPCConsumer forwards signals to a symbolic mesh endpoint over gRPC,
// carrying each signal as a google.protobuf.Struct.
type GRPCConsumer struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor

// NewGRPCConsumer connects to the mesh endpoint at addr.
func NewGRPCConsumer(addr string) (*GRPCConsumer, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &GRPCConsumer{conn: conn, cc: conn}, nil
}

// NewGRPCConsumerWithConn wraps an existing connection. The caller keeps
// ownership of cc.
func NewGRPCConsumerWithConn(cc grpc.ClientConnInterface) *GRPCConsumer {
	return &GRPCConsumer{cc: cc}
}

// #endregion constructor

// #region close

// Close shuts down a connection opened by NewGRPCConsumer.
func (c *GRPCConsumer) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Available reports false once the connection has been shut down.
func (c *GRPCConsumer) Available() bool {
	if c.conn == nil {
		return c.cc != nil
	}
	return c.conn.GetState() != connectivity.Shutdown
}

// #endregion close

// #region send

// Send delivers one signal.
func (c *GRPCConsumer) Send(ctx context.Context, sig Signal) error {
	st, err := sig.ToStruct()
	if err != nil {
		return err
	}
	if err := c.cc.Invoke(ctx, ReceiveMethod, st, &emptypb.Empty{}); err != nil {
		return fmt.Errorf("mesh receive rpc: %w", err)
	}
	return nil
}

// SendBatch delivers all signals in one call. The endpoint replies with the
// number it accepted.
func (c *GRPCConsumer) SendBatch(ctx context.Context, sigs []Signal) (int, error) {
	list := make([]any, 0, len(sigs))
	for _, s := range sigs {
		m, err := s.ToMap()
		if err != nil {
			return 0, err
		}
		list = append(list, m)
	}
	req, err := structpb.NewStruct(map[string]any{"signals": list})
	if err != nil {
		return 0, fmt.Errorf("encode batch: %w", err)
	}
	resp := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, ReceiveBatchMethod, req, resp); err != nil {
		return 0, fmt.Errorf("mesh receive batch rpc: %w", err)
	}
	return acceptedCount(resp, len(sigs))
}

// acceptedCount reads the "accepted" field of a batch reply. Missing,
// non-finite, fractional or negative counts are rejected; counts above size
// are capped.
func acceptedCount(resp *structpb.Struct, size int) (int, error) {
	v, ok := resp.GetFields()["accepted"]
	if !ok {
		return 0, fmt.Errorf("mesh receive batch: reply has no accepted count")
	}
	f := v.GetNumberValue()
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum ||
		math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("mesh receive batch: invalid accepted count %v", v.AsInterface())
	}
	if f > float64(size) {
		return size, nil
	}
	return int(f), nil
}

// #endregion send

// #region codec

// ToMap converts the signal to a JSON-shaped map.
func (s Signal) ToMap() (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal signal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal signal map: %w", err)
	}
	return m, nil
}

// ToStruct converts the signal to a protobuf Struct.
func (s Signal) ToStruct() (*structpb.Struct, error) {
	m, err := s.ToMap()
	if err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode signal: %w", err)
	}
	return st, nil
}

// SignalFromStruct decodes a Struct produced by ToStruct.
func SignalFromStruct(st *structpb.Struct) (Signal, error) {
	return SignalFromMap(st.AsMap())
}

// SignalFromMap decodes a map produced by ToMap.
func SignalFromMap(m map[string]any) (Signal, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return Signal{}, fmt.Errorf("marshal signal map: %w", err)
	}
	var s Signal
	if err := json.Unmarshal(data, &s); err != nil {
		return Signal{}, fmt.Errorf("decode signal: %w", err)
	}
	return s, nil
}

// #endregion codec
