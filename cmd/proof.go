package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/prooflog"
	"github.com/abhisek/proofloop/internal/store"
)

var proofCmd = &cobra.Command{
	Use:   "proof",
	Short: "Inspect recorded understanding checkpoints",
}

var proofHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List a student's checkpoint attempts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID, _ := cmd.Flags().GetString("student")
		limit, _ := cmd.Flags().GetInt("limit")

		return withProofLog(func(l *prooflog.Logger) error {
			events, err := l.StudentHistory(cmd.Context(), studentID, limit)
			if err != nil {
				return fmt.Errorf("query history: %w", err)
			}
			printEvents(cmd.OutOrStdout(), events, "No checkpoint attempts recorded for "+studentID+".")
			return nil
		})
	},
}

var proofEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List a chat's checkpoint attempts in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		chatID, _ := cmd.Flags().GetString("chat")

		return withProofLog(func(l *prooflog.Logger) error {
			events, err := l.ChatEvents(cmd.Context(), chatID)
			if err != nil {
				return fmt.Errorf("query chat events: %w", err)
			}
			printEvents(cmd.OutOrStdout(), events, "No checkpoint attempts recorded for chat "+chatID+".")
			return nil
		})
	},
}

var proofStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize a student's checkpoint results",
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID, _ := cmd.Flags().GetString("student")

		return withProofLog(func(l *prooflog.Logger) error {
			st, err := l.Stats(cmd.Context(), studentID)
			if err != nil {
				return fmt.Errorf("query stats: %w", err)
			}
			printStats(cmd.OutOrStdout(), st)
			return nil
		})
	},
}

func withProofLog(fn func(*prooflog.Logger) error) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	l := prooflog.New(s.ProofEventRepo(), cfg.ProofLogConfig(), prooflog.WithLogger(logger))
	defer l.Close()
	return fn(l)
}

func printEvents(w io.Writer, events []store.ProofEvent, empty string) {
	if len(events) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	fmt.Fprintf(w, "%-19s  %-8s  %-24s  %s\n", "Time", "Result", "Concept", "Response")
	fmt.Fprintln(w, strings.Repeat("─", 100))
	for _, e := range events {
		fmt.Fprintf(w, "%-19s  %-8s  %-24s  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Classification,
			truncate(e.Concept, 24),
			e.StudentResponseExcerpt,
		)
	}
}

func printStats(w io.Writer, st *prooflog.Stats) {
	fmt.Fprintf(w, "Student:   %s\n", st.StudentID)
	fmt.Fprintf(w, "Attempts:  %d\n", st.TotalAttempts)
	if st.TotalAttempts == 0 {
		return
	}
	for _, c := range []conversation.Classification{
		conversation.ClassificationPass,
		conversation.ClassificationPartial,
		conversation.ClassificationRetry,
	} {
		fmt.Fprintf(w, "  %-8s %d\n", c, st.ByClassification[c])
	}
	fmt.Fprintf(w, "Pass rate: %.0f%%\n", st.PassRate*100)

	concepts := append([]string(nil), st.ConceptsProven...)
	sort.Strings(concepts)
	fmt.Fprintf(w, "Proven:    %d\n", len(concepts))
	for _, c := range concepts {
		fmt.Fprintf(w, "  - %s\n", c)
	}
}

func init() {
	proofHistoryCmd.Flags().String("student", "local", "Student ID")
	proofHistoryCmd.Flags().IntP("limit", "n", 20, "Number of attempts to show (0 for all)")
	proofEventsCmd.Flags().String("chat", "", "Chat ID")
	_ = proofEventsCmd.MarkFlagRequired("chat")
	proofStatsCmd.Flags().String("student", "local", "Student ID")

	proofCmd.AddCommand(proofHistoryCmd)
	proofCmd.AddCommand(proofEventsCmd)
	proofCmd.AddCommand(proofStatsCmd)
}
