// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package sequencer

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/corechain/execd/rlp"
	"github.com/corechain/execd/zkvm"
)

// wireTask is what TakeTask hands back to a remote prover client, RLP
// encoded into the BytesValue payload below. Ok is false when the queue
// is empty; the client should back off and retry.
type wireTask struct {
	Ok      bool
	BatchID uint64
	Program zkvm.GuestProgram
	Input   zkvm.GuestInput
}

// wireResult is what a remote prover client reports back through
// CompleteTask: either a proof or a failure reason.
type wireResult struct {
	BatchID uint64
	Failed  bool
	ErrMsg  string
	Proof   []byte
	Inputs  zkvm.PublicInputs
}

// grpcServer adapts a ProofCoordinator to the ProverWorker gRPC service:
// remote prover clients call TakeTask/CompleteTask the same way the
// in-process local backend's loop in Run does, letting a fleet of
// external SP1/RISC-Zero workers share the same queue and
// at-most-one-in-flight accounting as the local backend. The request and
// response messages are carried as opaque RLP inside
// wrapperspb.BytesValue — a real protobuf message type from the
// standard well-known-types package — rather than through a
// protoc-generated stub this module has no .proto pipeline to produce.
type grpcServer struct {
	coord *ProofCoordinator
}

// NewGRPCServer registers coord's ProverWorker service on srv.
func NewGRPCServer(srv *grpc.Server, coord *ProofCoordinator) {
	srv.RegisterService(&proverWorkerServiceDesc, &grpcServer{coord: coord})
}

func (s *grpcServer) takeTask(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	worker := string(req.GetValue())

	task, ok := s.coord.TakeTask(worker)
	wt := wireTask{Ok: ok}
	if ok {
		wt.BatchID = task.BatchID
		if task.Program != nil {
			wt.Program = *task.Program
		}
		wt.Input = task.Input
	}
	enc, err := rlp.EncodeToBytes(&wt)
	if err != nil {
		return nil, fmt.Errorf("proofcoordinator: encoding wireTask: %w", err)
	}
	return wrapperspb.Bytes(enc), nil
}

func (s *grpcServer) completeTask(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	var wr wireResult
	if err := rlp.DecodeBytes(req.GetValue(), &wr); err != nil {
		return nil, fmt.Errorf("proofcoordinator: decoding wireResult: %w", err)
	}

	if wr.Failed {
		s.coord.CompleteTask(ctx, wr.BatchID, nil, fmt.Errorf("remote prover: %s", wr.ErrMsg))
	} else {
		s.coord.CompleteTask(ctx, wr.BatchID, &zkvm.Proof{Data: wr.Proof, PublicInputs: wr.Inputs}, nil)
	}
	return wrapperspb.Bytes(nil), nil
}

// proverWorkerServiceDesc is a hand-written grpc.ServiceDesc in place of
// protoc-gen-go-grpc output: two unary methods, both carrying opaque
// RLP-encoded payloads inside google.golang.org/protobuf's own
// wrapperspb.BytesValue message so the wire format stays valid protobuf
// without this module needing a .proto compile step.
var proverWorkerServiceDesc = grpc.ServiceDesc{
	ServiceName: "corechain.sequencer.ProverWorker",
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "TakeTask",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(wrapperspb.BytesValue)
				if err := dec(req); err != nil {
					return nil, err
				}
				s := srv.(*grpcServer)
				if interceptor == nil {
					return s.takeTask(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/corechain.sequencer.ProverWorker/TakeTask"}
				handler := func(ctx context.Context, req any) (any, error) {
					return s.takeTask(ctx, req.(*wrapperspb.BytesValue))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
		{
			MethodName: "CompleteTask",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(wrapperspb.BytesValue)
				if err := dec(req); err != nil {
					return nil, err
				}
				s := srv.(*grpcServer)
				if interceptor == nil {
					return s.completeTask(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/corechain.sequencer.ProverWorker/CompleteTask"}
				handler := func(ctx context.Context, req any) (any, error) {
					return s.completeTask(ctx, req.(*wrapperspb.BytesValue))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "l2/sequencer/proofcoordinator_grpc.go",
}
