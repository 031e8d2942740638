// Command mupacket-trace decodes a captured hex dump of Mu Online
// frames and logs what it finds: kind, opcode, payload length, and the
// receive counter after the frame (which advances only on encrypted
// frames).
package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/mu-online/mupacket/codec"
	"github.com/mu-online/mupacket/internal/config"
	"github.com/mu-online/mupacket/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to the directive configuration file (required)")
	capturePath := flag.String("capture", "", "path to a hex-frame capture file (required)")
	logPath := flag.String("log", "mupacket-trace.log", "path to the JSON trace log")
	schemePath := flag.String("scheme-file", "", "optional scheme.yaml overriding the built-in key schedules")
	watch := flag.Bool("watch", false, "after decoding the capture, keep running: SIGHUP reopens the log file and reloads -config/-scheme-file, SIGTERM/SIGINT exits")
	flag.Parse()

	if *configPath == "" || *capturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: mupacket-trace -config FILE -capture FILE [-scheme-file FILE] [-log FILE] [-watch]")
		os.Exit(2)
	}

	if err := run(*configPath, *capturePath, *schemePath, *logPath, *watch); err != nil {
		fmt.Fprintf(os.Stderr, "mupacket-trace: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, capturePath, schemePath, logPath string, watch bool) error {
	manager := config.NewManager(configPath, schemePath)
	snap, err := manager.Reload()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, rw, err := logging.New(logPath, string(snap.Config.Scheme))
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer func() { _ = rw.Close() }()
	defer func() { _ = logger.Sync() }()

	wire, err := readCapture(capturePath)
	if err != nil {
		return fmt.Errorf("read capture: %w", err)
	}

	c := codec.WithMaxSize(
		codec.NewState(nil, nil),
		codec.NewState(&snap.Cipher, &snap.Scheme),
		snap.Config.MaxPacketSize,
	)

	decoded, trailing, err := decodeCapture(c, logger, wire)
	if err != nil {
		return err
	}
	fmt.Printf("decoded %d frame(s), %d trailing byte(s)\n", decoded, trailing)

	if !watch {
		return nil
	}
	return watchForSignals(manager, rw, logger)
}

// decodeCapture feeds wire through c, logging each decoded frame, and
// returns the number of frames decoded and any trailing bytes left
// undecoded at the end of the capture.
func decodeCapture(c *codec.Codec, logger *zap.Logger, wire []byte) (decoded, trailing int, err error) {
	buf := bytes.NewBuffer(wire)
	for {
		p, err := c.Decode(buf)
		if err != nil {
			return decoded, buf.Len(), fmt.Errorf("decode frame #%d: %w", decoded, err)
		}
		if p == nil {
			break
		}
		decoded++
		logger.Info("frame decoded",
			zap.String("kind", p.Kind().String()),
			zap.Uint8("code", p.Code()),
			zap.Int("payload_len", len(p.Data())),
			zap.Uint8("recv_counter", c.Recv().Counter()),
		)
	}

	if buf.Len() > 0 {
		logger.Warn("trailing undecoded bytes at end of capture",
			zap.Int("bytes", buf.Len()),
			zap.String("hex", hex.EncodeToString(buf.Bytes())),
		)
	}
	return decoded, buf.Len(), nil
}

// watchForSignals blocks, reacting to SIGHUP by reopening the trace
// log (logging.ReopenableWriter.Reopen) and reloading the config
// manager's snapshot (config.Manager.Reload), and to SIGTERM/SIGINT by
// returning so the caller can shut down cleanly.
func watchForSignals(manager *config.Manager, rw *logging.ReopenableWriter, logger *zap.Logger) error {
	logger.Info("entering watch mode: send SIGHUP to reload, SIGTERM/SIGINT to stop")

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	for sig := range sigCh {
		if handleSignal(manager, rw, logger, sig) {
			return nil
		}
	}
	return nil
}

// handleSignal processes one signal delivered to the watch loop. A
// SIGHUP reopens the trace log and reloads the config manager's
// snapshot; SIGTERM/SIGINT tell the caller to stop. It returns true
// when the watch loop should exit.
func handleSignal(manager *config.Manager, rw *logging.ReopenableWriter, logger *zap.Logger, sig os.Signal) bool {
	if sig == syscall.SIGTERM || sig == syscall.SIGINT {
		logger.Info("stopping", zap.String("signal", sig.String()))
		return true
	}

	if err := rw.Reopen(); err != nil {
		logger.Warn("log reopen failed", zap.Error(err))
	}

	snap, err := manager.Reload()
	if err != nil {
		logger.Warn("config reload failed", zap.Error(err))
		return false
	}
	stats := manager.Stats()
	logger.Info("config reloaded",
		zap.String("scheme", string(snap.Config.Scheme)),
		zap.String("config_md5", snap.MD5Hex),
		zap.Int("config_bytes", snap.Bytes),
		zap.Uint64("reload_calls", stats.ReloadCalls),
		zap.Uint64("reload_success", stats.ReloadSuccess),
	)
	return false
}

// readCapture reads a hex-frame capture file: one frame's hex bytes per
// line, blank lines and '#'-prefixed comment lines ignored. The decoded
// bytes of every line are concatenated in file order, so a capture may
// also split one frame's bytes across several lines.
func readCapture(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out bytes.Buffer
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b, err := hex.DecodeString(strings.ReplaceAll(line, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("invalid hex on line %q: %w", line, err)
		}
		out.Write(b)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
