// hdlc_sniff decodes an HDLC byte stream from a TCP endpoint or stdin and
// prints every frame it finds, malformed ones included.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"io"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pwkit/pwkit/pkg/pw_hdlc"
)

const kPreviewBytes = 16

func initLogger(verbose bool) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(output).With().Timestamp().Str("app", "hdlc_sniff").Logger().Level(level)
}

func openSource(endpoint string) (io.ReadCloser, error) {
	if endpoint == "" {
		return os.Stdin, nil
	}
	return net.Dial("tcp", endpoint)
}

func logFrame(cfg config, frame pw_hdlc.Frame) {
	if !frame.Ok() {
		log.Warn().
			Stringer("status", frame.Status()).
			Int("discarded_bytes", len(frame.RawEncoded())).
			Msg("malformed frame")
		return
	}

	preview := frame.Data()
	truncated := false
	if len(preview) > kPreviewBytes {
		preview = preview[:kPreviewBytes]
		truncated = true
	}

	event := log.Info().
		Uint64("address", frame.Address()).
		Uint8("control", frame.Control()).
		Int("payload_bytes", len(frame.Data())).
		Str("payload", hex.EncodeToString(preview)).
		Bool("truncated", truncated)

	switch frame.Address() {
	case cfg.RpcAddress:
		event.Str("kind", "rpc")
	case cfg.LogAddress:
		event.Str("kind", "log").Str("text", string(frame.Data()))
	default:
		event.Str("kind", "unknown")
	}

	event.Msg("frame")
}

func run(ctx context.Context, cfg config) error {
	source, err := openSource(cfg.Endpoint)
	if err != nil {
		return err
	}
	defer source.Close()

	reader := pw_hdlc.NewReader(source)
	for {
		frame, err := reader.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		logFrame(cfg, frame)
	}
}

func main() {
	configPath := flag.String("config", "", "path to config.toml")
	endpoint := flag.String("endpoint", "", "TCP endpoint to sniff; stdin when empty")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("bad config")
		}
	}
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}
	if *verbose {
		cfg.Verbose = true
	}

	initLogger(cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("sniffer stopped")
	}
}
