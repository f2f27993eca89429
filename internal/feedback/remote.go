package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/aka-qualia/internal/policy"
	"github.com/danielpatrickdp/aka-qualia/internal/qualia"
)

// #region methods

// gRPC methods of the aka.oneiric.v1.OneiricService service.
const (
	ServiceName       = "aka.oneiric.v1.OneiricService"
	ApplyPolicyMethod = "/" + ServiceName + "/ApplyPolicy"
)

// #endregion methods

// #region remote-hook

// RemoteHook forwards scene and policy to an oneiric service over gRPC.
type RemoteHook struct {
	conn    *grpc.ClientConn
	cc      grpc.ClientConnInterface
	timeout time.Duration
	logger  *zap.Logger
}

// NewRemoteHook dials addr. The connection is lazy; an unreachable backend
// shows up as fallback hints, not as a constructor error.
func NewRemoteHook(addr string, timeout time.Duration, logger *zap.Logger) (*RemoteHook, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	h := NewRemoteHookWithConn(conn, timeout, logger)
	h.conn = conn
	return h, nil
}

// NewRemoteHookWithConn wraps an existing connection. The caller keeps
// ownership of cc.
func NewRemoteHookWithConn(cc grpc.ClientConnInterface, timeout time.Duration, logger *zap.Logger) *RemoteHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteHook{cc: cc, timeout: timeout, logger: logger.Named("feedback")}
}

// Close shuts down a connection opened by NewRemoteHook.
func (h *RemoteHook) Close() error {
	if h.conn == nil {
		return nil
	}
	return h.conn.Close()
}

// ApplyPolicy calls the remote service. Any failure is logged and degrades
// to FallbackHints.
func (h *RemoteHook) ApplyPolicy(ctx context.Context, scene qualia.PhenomenalScene, pol policy.RegulationPolicy) Hints {
	hints, err := h.call(ctx, scene, pol)
	if err != nil {
		h.logger.Warn("remote feedback failed, using fallback hints", zap.Error(err))
		return FallbackHints()
	}
	hints.Source = SourceRemote
	return hints
}

func (h *RemoteHook) call(ctx context.Context, scene qualia.PhenomenalScene, pol policy.RegulationPolicy) (Hints, error) {
	req, err := encodeRequest(scene, pol)
	if err != nil {
		return Hints{}, err
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	resp := &structpb.Struct{}
	if err := h.cc.Invoke(ctx, ApplyPolicyMethod, req, resp); err != nil {
		return Hints{}, fmt.Errorf("%w: apply policy rpc: %v", ErrUnavailable, err)
	}
	return decodeHints(resp)
}

// #endregion remote-hook

// #region codec

func encodeRequest(scene qualia.PhenomenalScene, pol policy.RegulationPolicy) (*structpb.Struct, error) {
	sm, err := scene.ToMap()
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	pm, err := toMap(pol)
	if err != nil {
		return nil, fmt.Errorf("encode policy: %w", err)
	}
	st, err := structpb.NewStruct(map[string]any{"scene": sm, "policy": pm})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return st, nil
}

func decodeRequest(st *structpb.Struct) (qualia.PhenomenalScene, policy.RegulationPolicy, error) {
	fields := st.GetFields()
	sv, ok := fields["scene"]
	if !ok {
		return qualia.PhenomenalScene{}, policy.RegulationPolicy{}, fmt.Errorf("request missing scene")
	}
	scene, err := qualia.SceneFromMap(sv.GetStructValue().AsMap())
	if err != nil {
		return qualia.PhenomenalScene{}, policy.RegulationPolicy{}, err
	}
	var pol policy.RegulationPolicy
	if err := fromMap(fields["policy"].GetStructValue().AsMap(), &pol); err != nil {
		return qualia.PhenomenalScene{}, policy.RegulationPolicy{}, fmt.Errorf("decode policy: %w", err)
	}
	return scene, pol, nil
}

func encodeHints(h Hints) (*structpb.Struct, error) {
	m, err := toMap(h)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func decodeHints(st *structpb.Struct) (Hints, error) {
	var h Hints
	if err := fromMap(st.AsMap(), &h); err != nil {
		return Hints{}, fmt.Errorf("decode hints: %w", err)
	}
	if h.Ops == nil {
		h.Ops = []string{}
	}
	return h, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromMap(m map[string]any, v any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// #endregion codec
