package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"ham/host/console"
	"ham/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	logFile = flag.String("log", "ham-console.log", "Rotating log file (empty disables)")
	maxSize = flag.Int("max-size", 10, "Log file size in megabytes before rotation")
	backups = flag.Int("backups", 5, "Rotated log files to keep")
	tags    = flag.String("tags", "", "Comma separated tags to keep (default all)")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	var out io.Writer = os.Stdout
	if *logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    *maxSize,
			MaxBackups: *backups,
			Compress:   true,
		}
		defer rotator.Close()
		out = io.MultiWriter(os.Stdout, rotator)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintf(os.Stderr, "Reading %s, Ctrl-C to stop\n", *device)
	n, err := console.Pump(ctx, port, out, console.NewFilter(*tags), time.Now)
	fmt.Fprintf(os.Stderr, "%d lines\n", n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
