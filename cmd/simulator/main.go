package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telemetry-server/internal/telemetry/simulator"

	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
)

func main() {
	target := pflag.String("target", "http://localhost:5000", "telemetry server base URL")
	schedule := pflag.String("schedule", "@every 1s", "cron spec for sending readings, seconds field optional")
	seed := pflag.Int64("seed", time.Now().UnixNano(), "random seed for temperature noise")
	debug := pflag.Bool("debug", false, "log every reading sent")
	pflag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{AddSource: true, Level: level})),
	)
	slog.Info("simulator starting", slog.String("target", *target), slog.String("schedule", *schedule))

	generator := simulator.NewGenerator(*seed)
	sender := simulator.NewSender(*target, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	scheduler := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := scheduler.AddFunc(*schedule, func() {
		snapshot := generator.Next()
		resp, err := sender.Send(ctx, snapshot)
		if err != nil {
			slog.Error("sending readings", slog.Any("error", err))
			return
		}

		slog.Debug("readings sent",
			slog.Float64("temp", snapshot.Temperature),
			slog.Float64("joy_x", snapshot.JoystickX),
			slog.Float64("joy_y", snapshot.JoystickY),
			slog.Int("btn_a", snapshot.ButtonA),
			slog.Int("btn_b", snapshot.ButtonB),
			slog.Int("status", resp.StatusCode),
			slog.String("detail", resp.Detail),
		)
	})
	if err != nil {
		slog.Error("invalid schedule", slog.String("schedule", *schedule), slog.Any("error", err))
		os.Exit(1)
	}

	signalChannel := make(chan os.Signal, 2)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)

	scheduler.Start()
	<-signalChannel

	cancel()
	<-scheduler.Stop().Done()
	slog.Info("good bye!!!")
	os.Exit(0)
}
