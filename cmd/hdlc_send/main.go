// hdlc_send frames a payload and writes it to a TCP endpoint or stdout.
// The payload comes from the command line arguments, or stdin when none
// are given.
package main

import (
	"flag"
	"io"
	"net"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pwkit/pwkit/pkg/pw_hdlc"
)

func openSink(endpoint string) (io.WriteCloser, error) {
	if endpoint == "" {
		return os.Stdout, nil
	}
	return net.Dial("tcp", endpoint)
}

func main() {
	endpoint := flag.String("endpoint", "", "TCP endpoint to send to; stdout when empty")
	address := flag.Uint64("address", uint64('R'), "HDLC address field")
	control := flag.Uint("control", 0x03, "HDLC control byte")
	lite := flag.Bool("lite", false, "use the lite protocol variant")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	payload := []byte(strings.Join(flag.Args(), " "))
	if len(flag.Args()) == 0 {
		var err error
		payload, err = io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatal().Err(err).Msg("read stdin")
		}
	}

	if *control > 0xff {
		log.Fatal().Uint("control", *control).Msg("control byte out of range")
	}

	var frame []byte
	if *lite {
		frame = pw_hdlc.EncodeLiteFrame(payload)
	} else {
		frame = pw_hdlc.EncodeInformationFrame(*address, byte(*control), payload)
	}

	sink, err := openSink(*endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("open sink")
	}
	defer sink.Close()

	if _, err := sink.Write(frame); err != nil {
		log.Fatal().Err(err).Msg("write frame")
	}

	log.Info().
		Int("payload_bytes", len(payload)).
		Int("frame_bytes", len(frame)).
		Msg("frame sent")
}
