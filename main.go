package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"waldiez-stream/chat"
	"waldiez-stream/config"
	"waldiez-stream/internal"
	"waldiez-stream/logger"
	"waldiez-stream/metrics"
	"waldiez-stream/step"
	"waldiez-stream/types"
)

// The waldiez-stream binary is a pipe filter: it reads the backend's
// line-delimited output on stdin, runs each line through the chat or
// step-by-step processor, and writes normalized results as JSON lines on
// stdout. Diagnostics go to the JSONL observability log; /metrics serves
// Prometheus counters.
func main() {
	fmt.Fprintln(os.Stderr, GetBuildInfo())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	obs, err := logger.NewObservabilityLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize observability logger: %v", err)
	}
	defer obs.Close()

	ctx := context.Background()
	if cfg.FlowID != "" {
		ctx = internal.WithFlowID(ctx, cfg.FlowID)
	}
	inlineLog := logger.New(ctx, cfg)

	obs.Info(logger.ComponentConfig, logger.CategoryDebug, "", "Waldiez stream consumer starting", map[string]interface{}{
		"mode":       cfg.Mode,
		"port":       cfg.Port,
		"flow_id":    cfg.FlowID,
		"version":    GetVersionInfo(),
		"git_commit": GetGitCommit(),
	})

	if cfg.MetricsEnabled {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
				inlineLog.Error("metrics server stopped: %v", err)
			}
		}()
	}

	chatProc := chat.NewProcessor(inlineLog)
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	switch cfg.Mode {
	case config.ModeStep:
		runStep(in, out, step.NewProcessor(chatProc, inlineLog), obs)
	default:
		runChat(in, out, chatProc, obs)
	}

	if err := in.Err(); err != nil {
		inlineLog.Error("stdin read failed: %v", err)
	}
}

// runChat consumes the chat-taxonomy stream. The pending input request id is
// threaded back into the processor so later payloads resolve against it.
func runChat(in *bufio.Scanner, out *bufio.Writer, proc *chat.Processor, obs *logger.ObservabilityLogger) {
	var pendingRequestID string

	for in.Scan() {
		line := in.Text()
		result := proc.Process(line, &chat.Context{RequestID: pendingRequestID})
		if result == nil {
			metrics.ObserveMessage(metrics.TaxonomyChat, metrics.OutcomeDropped)
			obs.Dropped(pendingRequestID, "", map[string]interface{}{"raw_length": len(line)})
			continue
		}

		if result.Message != nil {
			switch result.Message.Type {
			case types.MessageTypeInputRequest:
				pendingRequestID = result.RequestID
			case types.MessageTypeInputResponse:
				pendingRequestID = ""
			}
		}

		metrics.ObserveMessage(metrics.TaxonomyChat, metrics.OutcomeHandled)
		emit(out, result)
	}
}

// runStep consumes the step-by-step stream, applying returned state patches
// to the locally held debug state before the next payload arrives.
func runStep(in *bufio.Scanner, out *bufio.Writer, proc *step.Processor, obs *logger.ObservabilityLogger) {
	state := &types.DebugState{}

	for in.Scan() {
		line := in.Text()
		result := proc.Process(line, &step.Context{CurrentState: state})
		if result == nil {
			metrics.ObserveMessage(metrics.TaxonomyStep, metrics.OutcomeDropped)
			continue
		}

		if result.Error != nil {
			metrics.ObserveMessage(metrics.TaxonomyStep, metrics.OutcomeError)
			if result.Error.Code == types.ErrCodeParse {
				metrics.ObserveParseFailure()
			}
			obs.StepError("", result.Error.Code, result.Error.Message, map[string]interface{}{
				"raw_length": len(line),
			})
		} else {
			metrics.ObserveMessage(metrics.TaxonomyStep, metrics.OutcomeHandled)
			applyStateUpdate(state, result.StateUpdate)
		}
		emit(out, result)
	}
}

// applyStateUpdate applies a returned patch to the consumer-owned state.
// This is the caller-side half of the contract: the processor only describes
// changes.
func applyStateUpdate(state *types.DebugState, update *types.StateUpdate) {
	if update == nil {
		return
	}
	if update.Breakpoints != nil {
		state.Breakpoints = *update.Breakpoints
	}
	if len(update.EventHistory) > 0 {
		state.EventHistory = append(state.EventHistory, update.EventHistory...)
	}
}

func emit(out *bufio.Writer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	out.Write(data)
	out.WriteByte('\n')
	out.Flush()
}
