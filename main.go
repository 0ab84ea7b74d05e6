package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"bitableqa/internal/agent"
	"bitableqa/internal/config"
	"bitableqa/internal/coordinator"
	"bitableqa/internal/deepseek"
	"bitableqa/internal/feishu"
	"bitableqa/internal/fetcher"
	"bitableqa/internal/gemini"
	"bitableqa/internal/logger"
	"bitableqa/internal/ratelimit"
	"bitableqa/internal/record"
	"bitableqa/internal/session"

	"golang.org/x/time/rate"
)

const (
	loadTimeout = 5 * time.Minute
	askTimeout  = 2 * time.Minute
	previewRows = 10
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
		os.Stdin.Close()
	}()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("session ended with error")
		os.Exit(1)
	}
}

// newSession wires the load pipeline and the configured agent provider
func newSession(cfg *config.Config) *session.Session {
	if cfg.FeishuRateLimit > 0 {
		ratelimit.GetLimiter().SetLimit(ratelimit.APIFeishu, rate.Limit(cfg.FeishuRateLimit), 1)
	}

	tokens := feishu.NewTokenProvider(cfg.FeishuAppID, cfg.FeishuAppSecret, cfg.FeishuBaseURL, cfg.FeishuRetryCount)
	records := feishu.NewRecordFetcher(cfg.FeishuBaseURL, cfg.FeishuPageSize, cfg.FeishuRetryCount)

	coord := coordinator.New(
		tokens,
		records,
		record.NewNormalizer(cfg.Fields),
		fetcher.Locator{AppToken: cfg.FeishuAppToken, TableID: cfg.FeishuTableID},
	)

	var factory agent.Factory
	switch cfg.AgentProvider {
	case config.ProviderGemini:
		factory = gemini.NewFactory(gemini.Options{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
	default:
		factory = deepseek.NewFactory(cfg.DeepSeekAPIKey, cfg.DeepSeekModel, cfg.DeepSeekBaseURL)
	}

	return session.New(coord, factory)
}

// run loads the table, prints a preview and answers questions read from in,
// one per line, until in is exhausted or ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	sess := newSession(cfg)

	// A failed first load is reported like a failed reload; questions are
	// refused until a /reload succeeds
	if err := load(ctx, sess, out); err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
	}

	fmt.Fprintln(out, "Ask a question about the table (/reload to fetch again, /history to review, Ctrl-D to quit).")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		switch query {
		case "":
			continue
		case "/reload":
			if err := load(ctx, sess, out); err != nil {
				fmt.Fprintf(out, "❌ %v\n", err)
			}
			continue
		case "/history":
			printHistory(out, sess.History())
			continue
		}

		askCtx, askCancel := context.WithTimeout(ctx, askTimeout)
		entry, err := sess.Ask(askCtx, query)
		askCancel()
		if errors.Is(err, session.ErrNoTable) {
			fmt.Fprintln(out, "❌ No table loaded yet, use /reload to fetch it")
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "❌ %v\n", err)
			continue
		}

		printEntry(out, len(sess.History()), *entry)
	}
	fmt.Fprintln(out)

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// load fetches the table into the session and reports the outcome
func load(ctx context.Context, sess *session.Session, out io.Writer) error {
	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	fmt.Fprintln(out, "Fetching the latest records from Feishu...")

	report, err := sess.Load(loadCtx)
	if err != nil {
		return err
	}

	switch {
	case report.Table.Len() == 0 && report.Truncated():
		fmt.Fprintln(out, "❌ Failed to fetch records")
	case report.Truncated():
		fmt.Fprintf(out, "⚠️  Fetch stopped early, loaded %d records from %d pages\n", report.Table.Len(), report.Pages)
	default:
		fmt.Fprintf(out, "✅ Fetched %d records\n", report.Table.Len())
	}

	printPreview(out, report.Table, previewRows)
	return nil
}

func printPreview(out io.Writer, table *record.Table, n int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(table.Columns(), "\t"))
	for _, row := range table.Head(n) {
		fmt.Fprintln(w, strings.Join(row.Cells(), "\t"))
	}
	w.Flush()

	if table.Len() > n {
		fmt.Fprintf(out, "... %d more rows\n", table.Len()-n)
	}
}

func printEntry(out io.Writer, n int, entry session.ChatEntry) {
	fmt.Fprintf(out, "\n### Question %d\n%s\n", n, entry.Query)

	if len(entry.Thoughts) > 0 {
		fmt.Fprintln(out, "\nThought process:")
		for i, thought := range entry.Thoughts {
			fmt.Fprintf(out, "Step %d: %s\n", i+1, thought)
			if i < len(entry.Charts) {
				fmt.Fprintf(out, "  [chart: %d bytes]\n", len(entry.Charts[i]))
			}
		}
	}

	fmt.Fprintf(out, "\nFinal answer:\n%s\n\n", entry.Answer)
}

func printHistory(out io.Writer, history []session.ChatEntry) {
	if len(history) == 0 {
		fmt.Fprintln(out, "No questions yet.")
		return
	}
	for i, entry := range history {
		printEntry(out, i+1, entry)
	}
}
