package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/engine"
	"github.com/abhisek/proofloop/internal/llm"
	"github.com/abhisek/proofloop/internal/metrics"
	"github.com/abhisek/proofloop/internal/prooflog"
	"github.com/abhisek/proofloop/internal/tutor"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a tutoring chat on stdin with understanding checkpoints",
	Long: "Reads one student message per line and prints the tutor's reply. Every few teaching\n" +
		"exchanges the tutor asks for an explanation in your own words.\n\n" +
		"Type /state to print the checkpoint state, /quit to exit.",
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("student", "local", "Student ID recorded on proof events")
	chatCmd.Flags().String("chat", "", "Chat ID (default: a new random UUID)")
	chatCmd.Flags().Int("grade", conversation.DefaultGradeLevel, "Student grade level")
	chatCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.addr)")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	studentID, _ := cmd.Flags().GetString("student")
	chatID, _ := cmd.Flags().GetString("chat")
	grade, _ := cmd.Flags().GetInt("grade")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	if chatID == "" {
		chatID = uuid.NewString()
	} else if _, err := uuid.Parse(chatID); err != nil {
		return fmt.Errorf("invalid --chat %q: %w", chatID, err)
	}
	if metricsAddr == "" {
		metricsAddr = cfg.Metrics.Addr
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	provider, err := llm.NewProvider(ctx, cfg.LLMConfig(), s.EventRepo(), logger.Named("llm"))
	if err != nil {
		return fmt.Errorf("configure model provider: %w", err)
	}
	if provider == nil {
		return errors.New("no model provider configured: set llm.provider (or PROOFLOOP_LLM_PROVIDER) and its API key")
	}

	m := metrics.New(prometheus.NewRegistry())
	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", zap.String("addr", metricsAddr))
	}

	proofs := prooflog.New(s.ProofEventRepo(), cfg.ProofLogConfig(),
		prooflog.WithLogger(logger.Named("prooflog")),
		prooflog.WithMetrics(m),
	)
	proofs.Start(ctx)
	defer proofs.Close()

	eng := engine.New(
		tutor.NewService(provider, tutor.DefaultConfig()),
		provider,
		proofs,
		cfg.EngineConfig(),
		engine.WithLogger(logger.Named("engine")),
		engine.WithMetrics(m),
	)

	state := conversation.NewState()
	state.GradeLevel = grade
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "chat %s (student %s). Say hello to start.\n", chatID, studentID)

	return chatLoop(ctx, eng, cmd.InOrStdin(), out, chatID, studentID, state)
}

// chatLoop runs the line-oriented transport: one student line in, one
// assistant reply out, with state and history carried between turns.
func chatLoop(ctx context.Context, eng *engine.Engine, in io.Reader, out io.Writer, chatID, studentID string, state conversation.State) error {
	var history []conversation.Message
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "you> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/state":
			b, _ := json.MarshalIndent(state, "", "  ")
			fmt.Fprintln(out, string(b))
			continue
		}

		res, err := eng.ProcessMessage(ctx, engine.Input{
			StudentText: line,
			State:       state,
			Recent:      history,
			ChatID:      chatID,
			StudentID:   studentID,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		meta := res.Metadata
		history = append(history,
			conversation.Message{Role: conversation.RoleUser, Content: line},
			conversation.Message{Role: conversation.RoleAssistant, Content: res.AssistantText, Metadata: &meta},
		)
		if n := len(history); n > historyLimit {
			history = history[n-historyLimit:]
		}
		state = res.State

		fmt.Fprintf(out, "tutor> %s\n", res.AssistantText)
		if res.Validation != nil {
			fmt.Fprintf(out, "       [%s: %s]\n", res.Validation.Classification, res.Validation.DepthAssessment)
		}
	}
}

const historyLimit = 40
