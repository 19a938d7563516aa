package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/md-rashed-zaman/bookingassistant/libs/grpcx"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	var (
		addr    = flag.String("addr", getenv("GRPC_ADDR", "localhost:9090"), "grpc health address")
		service = flag.String("service", getenv("SERVICE_NAME", ""), "service name to check (empty checks the server)")
		timeout = flag.Duration("timeout", 3*time.Second, "probe timeout")
	)
	flag.Parse()

	conn, err := grpcx.Dial(*addr, grpcx.DialOptions{})
	if err != nil {
		fatal(err.Error())
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = grpcx.WithRequestID(ctx, grpcx.NewRequestID())

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: *service})
	if err != nil {
		fatal(err.Error())
	}
	fmt.Printf("%s %s\n", *addr, resp.GetStatus())
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		os.Exit(1)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
