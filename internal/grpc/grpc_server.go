package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type Config struct {
	Host string `json:"host" yaml:"host" env:"VINABOOK_GRPC_HOST"`
}

type Server struct {
	cfg        Config
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	log        *logrus.Entry
}

func NewGRPCServer(cfg Config, hs *health.Server, log *logrus.Entry) *Server {
	return &Server{
		cfg:    cfg,
		health: hs,
		log:    log.WithField("component", "grpc"),
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s.grpcServer != nil {
		return errors.New("server is already running")
	}

	lis, err := net.Listen("tcp", s.cfg.Host)
	if err != nil {
		return err
	}
	s.listener = lis

	s.grpcServer = grpc.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)

	go func() {
		if err := s.grpcServer.Serve(lis); err != nil {
			s.log.WithError(err).Error("failed to serve")
		}
	}()

	s.log.Infof("gRPC server is running on %s", lis.Addr())

	return nil
}

// Addr is the bound address, useful when Host asks for port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.grpcServer == nil {
		return errors.New("server is not running")
	}
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	s.grpcServer = nil
	return nil
}
