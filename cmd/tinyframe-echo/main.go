// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command tinyframe-echo is a minimal TinyFrame server: it accepts TCP
// connections, serving each with its own TinyFrame instance that echoes
// every frame of type 1 back to its sender, and exposes per-instance
// counters on /metrics.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"code.hybscloud.com/tinyframe"
	"code.hybscloud.com/tinyframe/tflog"
	"code.hybscloud.com/tinyframe/tfnet"
)

const echoType = 1

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <listen-addr> <metrics-addr>\n", os.Args[0])
		os.Exit(1)
	}
	listenAddr, metricsAddr := os.Args[1], os.Args[2]

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer ln.Close()

	go serveMetrics(metricsAddr)

	fmt.Printf("tinyframe-echo listening on %s, metrics on %s\n", listenAddr, metricsAddr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		go handle(conn)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func handle(conn net.Conn) {
	defer conn.Close()

	logger := tflog.NewWriter(os.Stderr)
	tf, err := tinyframe.NewTF(
		tfnet.NewSink(conn),
		tinyframe.WithRole(tinyframe.Master),
		tinyframe.WithLogger(logger),
		tinyframe.WithMetrics(prometheus.DefaultRegisterer, prometheus.Labels{"peer": conn.RemoteAddr().String()}),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	if err := tf.AddTypeListener(echoType, echoHandler, 0, nil, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	if err := tfnet.RunTCP(context.Background(), tf, conn); err != nil {
		logger(tflog.Info, "connection closed", "remote", conn.RemoteAddr(), "err", err)
	}
}

func echoHandler(tf *tinyframe.TF, f *tinyframe.Frame, _ any) tinyframe.ListenerResult {
	if err := tf.Respond(f.ID, f.Type, f.Data); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return tinyframe.Stay
}
